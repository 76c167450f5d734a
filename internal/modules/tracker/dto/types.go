package dto

type TodayOutput struct {
	Day     string
	Seconds int64
}

type DayTotal struct {
	Day     string
	Seconds int64
}

type CleanUpOutput struct {
	Today   string
	Removed int
}
