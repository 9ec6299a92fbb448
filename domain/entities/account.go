package entities

import (
	"fmt"
	"unicode/utf8"
)

type User struct {
	Id       string `json:"user_id"`
	Username string `json:"username"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Profile struct {
	UserId       string `json:"user_id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	PrefectureId int    `json:"prefecture_id"`
	DistrictId   int    `json:"district_id"`
}

type Prefecture struct {
	Id   int    `json:"prefecture_id"`
	Name string `json:"name"`
}

type District struct {
	Id           int    `json:"district_id"`
	PrefectureId int    `json:"prefecture_id"`
	Name         string `json:"name"`
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

const maxProfileNameLength = 50

// Validate checks the fields that do not need master data.
func (p Profile) Validate() error {
	n := utf8.RuneCountInString(p.Name)
	if n == 0 {
		return ValidationError{Field: "name", Reason: "is required"}
	}
	if n > maxProfileNameLength {
		return ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxProfileNameLength)}
	}
	if p.Age < 0 || p.Age > 150 {
		return ValidationError{Field: "age", Reason: "must be between 0 and 150"}
	}
	return nil
}

func (c Credentials) Validate() error {
	if c.Username == "" {
		return ValidationError{Field: "username", Reason: "is required"}
	}
	if c.Password == "" {
		return ValidationError{Field: "password", Reason: "is required"}
	}
	return nil
}
