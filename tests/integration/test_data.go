package integration

import (
	"fmt"
	"sync/atomic"
	"time"
)

var staffSeq atomic.Int64

// TestStaff generates unique staff credentials for a role
func TestStaff(role string) (email, password string) {
	n := staffSeq.Add(1)
	email = fmt.Sprintf("%s-%d-%d@example.edu", role, time.Now().Unix(), n)
	password = "TestPassword123!"
	return
}

// TestComplaintBody builds a valid submission payload
func TestComplaintBody(severity, passcode string) map[string]string {
	body := map[string]string{
		"severity":    severity,
		"category":    "Verbal Harassment",
		"description": "A colleague made repeated unwelcome remarks during the weekly staff meeting.",
	}
	if passcode != "" {
		body["passcode"] = passcode
	}
	return body
}
