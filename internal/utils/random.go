package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/opsdesk/shift-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "宁",
}

func GenerateRandomName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateUsernameFromName builds a login name from the pinyin syllables of
// name plus a few digits.
func GenerateUsernameFromName(name string) string {
	syllables := pinyin.LazyConvert(name, nil)
	username := ""

	for _, s := range syllables {
		length := rand.Intn(len(s)) + 1
		username += s[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomEmployee(password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomName()
	username := GenerateUsernameFromName(name)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		Name:         name,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleEmployee,
	}, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var shiftWindows = map[domain.ShiftType][2]string{
	domain.ShiftMorning:   {"08:00", "14:00"},
	domain.ShiftAfternoon: {"14:00", "20:00"},
}

// GenerateRandomWeekIntent assigns employeeID to a random shift type for the
// seven days starting at from.
func GenerateRandomWeekIntent(employeeID string, from time.Time) domain.ShiftIntent {
	shiftType := domain.ShiftMorning
	if rand.Intn(2) == 1 {
		shiftType = domain.ShiftAfternoon
	}
	window := shiftWindows[shiftType]

	return domain.ShiftIntent{
		EmployeeIDs: []string{employeeID},
		StartDate:   from.Format(domain.DateLayout),
		EndDate:     from.AddDate(0, 0, 6).Format(domain.DateLayout),
		ShiftType:   shiftType,
		ShiftStart:  window[0],
		ShiftEnd:    window[1],
		Notes:       "seeded",
	}
}
