package utils

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// 批量生成时绝大多数是普通成员
var weightedRoles = []domain.Role{
	domain.RoleMember, domain.RoleMember, domain.RoleMember, domain.RoleMember,
	domain.RoleProgramManager, domain.RoleProgramManager,
	domain.RoleManager,
}

func GenerateRandomRole() domain.Role {
	return weightedRoles[rand.Intn(len(weightedRoles))]
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前若干个字母，再拼上 1~3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(organizationID uuid.UUID, departmentID *uuid.UUID, emailDomainName string) *domain.User {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)

	return &domain.User{
		Email:          strings.ToLower(username + "@" + emailDomainName),
		FullName:       fullName,
		Role:           GenerateRandomRole(),
		OrganizationID: organizationID,
		DepartmentID:   departmentID,
	}
}

// RecentWorkdays 返回 today 之前（含）最近的 n 个工作日，按时间升序
func RecentWorkdays(today time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for len(days) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, -1)
	}

	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

// GenerateRandomDayEntries 为某一天生成 1~3 条互不重叠的记录，时间从 08:00 起依次往后排
func GenerateRandomDayEntries(userID uuid.UUID, date time.Time, activityTypes []string) []domain.TimesheetEntry {
	n := rand.Intn(3) + 1
	entries := make([]domain.TimesheetEntry, 0, n)

	cursor := 8*60 + rand.Intn(4)*15
	for i := 0; i < n; i++ {
		duration := (rand.Intn(8) + 1) * 30 // 30 分钟 ~ 4 小时
		end := cursor + duration
		if end > 22*60 {
			break
		}

		entries = append(entries, domain.TimesheetEntry{
			UserID:          userID,
			EntryDate:       date,
			StartTime:       timesheet.FormatClock(cursor),
			EndTime:         timesheet.FormatClock(end),
			DurationMinutes: duration,
			ActivityType:    activityTypes[rand.Intn(len(activityTypes))],
			Status:          randomSeedStatus(),
		})

		cursor = end + rand.Intn(3)*15
	}

	return entries
}

func randomSeedStatus() domain.EntryStatus {
	switch rand.Intn(10) {
	case 0:
		return domain.EntryStatusRejected
	case 1, 2:
		return domain.EntryStatusDraft
	case 3, 4, 5:
		return domain.EntryStatusSubmitted
	default:
		return domain.EntryStatusApproved
	}
}
