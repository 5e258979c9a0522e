package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InvocationMode says how a run was started.
type InvocationMode int

const (
	// InvocationAdHoc is an interactive or scheduled run.
	InvocationAdHoc InvocationMode = iota
	// InvocationRuleTriggered is a run started by an AWS Config rule.
	InvocationRuleTriggered
)

// Invocation is the context a run is started with.
type Invocation struct {
	Mode  InvocationMode
	Event *ConfigRuleEvent
}

// ConfigRuleEvent is the payload AWS Config sends to a custom rule.
type ConfigRuleEvent struct {
	ConfigRuleID  string `json:"configRuleId"`
	AccountID     string `json:"accountId"`
	ResultToken   string `json:"resultToken"`
	InvokingEvent string `json:"invokingEvent"`
}

// InvokingEvent is the decoded invokingEvent field of a ConfigRuleEvent.
type InvokingEvent struct {
	MessageType              string    `json:"messageType"`
	NotificationCreationTime time.Time `json:"notificationCreationTime"`
}

// ParseInvocation decodes a Config rule event. An event without a
// configRuleId is treated as an ad-hoc run.
func ParseInvocation(raw []byte) (Invocation, error) {
	var event ConfigRuleEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return Invocation{}, fmt.Errorf("failed to decode config rule event: %w", err)
	}
	if event.ConfigRuleID == "" {
		return Invocation{Mode: InvocationAdHoc}, nil
	}
	if _, err := event.Decode(); err != nil {
		return Invocation{}, err
	}
	return Invocation{Mode: InvocationRuleTriggered, Event: &event}, nil
}

// Decode parses the nested invokingEvent document.
func (e ConfigRuleEvent) Decode() (InvokingEvent, error) {
	var inv InvokingEvent
	if e.InvokingEvent == "" {
		return inv, errors.New("config rule event has no invokingEvent")
	}
	if err := json.Unmarshal([]byte(e.InvokingEvent), &inv); err != nil {
		return inv, fmt.Errorf("failed to decode invokingEvent: %w", err)
	}
	if inv.NotificationCreationTime.IsZero() {
		return inv, errors.New("invokingEvent has no notificationCreationTime")
	}
	return inv, nil
}
