package session

import (
	"fmt"

	"github.com/browserfarm/browserfarm/internal/browser"
)

// ActionKind enumerates the closed set of page commands
type ActionKind string

const (
	ActionNavigate        ActionKind = "navigate"
	ActionClick           ActionKind = "click"
	ActionTypeText        ActionKind = "type"
	ActionWait            ActionKind = "wait"
	ActionWaitForSelector ActionKind = "waitForSelector"
	ActionGetText         ActionKind = "getText"
	ActionScreenshot      ActionKind = "screenshot"
	ActionEvaluate        ActionKind = "evaluate"
)

// Action is one typed page command with its argument payload. Unknown tags
// and malformed arguments are rejected by ParseAction before anything
// touches a page.
type Action struct {
	Type     ActionKind
	URL      string
	Selector string
	Text     string
	Script   string
	DelayMs  float64
	FullPage bool
}

// ParseAction converts the wire form (tag + positional args) into a typed
// Action.
func ParseAction(kind string, args []interface{}) (Action, error) {
	switch ActionKind(kind) {
	case ActionNavigate:
		url, err := stringArg(args, 0, "url")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionNavigate, URL: url}, nil

	case ActionClick:
		selector, err := stringArg(args, 0, "selector")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionClick, Selector: selector}, nil

	case ActionTypeText:
		selector, err := stringArg(args, 0, "selector")
		if err != nil {
			return Action{}, err
		}
		text, err := stringArg(args, 1, "text")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionTypeText, Selector: selector, Text: text}, nil

	case ActionWait:
		ms, err := numberArg(args, 0, "milliseconds")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionWait, DelayMs: ms}, nil

	case ActionWaitForSelector:
		selector, err := stringArg(args, 0, "selector")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionWaitForSelector, Selector: selector}, nil

	case ActionGetText:
		selector, err := stringArg(args, 0, "selector")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionGetText, Selector: selector}, nil

	case ActionScreenshot:
		fullPage := false
		if len(args) > 0 {
			b, ok := args[0].(bool)
			if !ok {
				return Action{}, fmt.Errorf("%w: fullPage must be a boolean", ErrBadActionArgs)
			}
			fullPage = b
		}
		return Action{Type: ActionScreenshot, FullPage: fullPage}, nil

	case ActionEvaluate:
		script, err := stringArg(args, 0, "script")
		if err != nil {
			return Action{}, err
		}
		return Action{Type: ActionEvaluate, Script: script}, nil

	default:
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}
}

func stringArg(args []interface{}, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing %s", ErrBadActionArgs, name)
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrBadActionArgs, name)
	}
	return s, nil
}

func numberArg(args []interface{}, i int, name string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing %s", ErrBadActionArgs, name)
	}
	switch v := args[i].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadActionArgs, name)
	}
}

// executeAction runs one typed command against a page handle. The dispatch
// is exhaustive over ActionKind; ParseAction guarantees the tag is known.
func executeAction(page browser.Page, a Action) (interface{}, error) {
	switch a.Type {
	case ActionNavigate:
		if err := page.Navigate(a.URL); err != nil {
			return nil, fmt.Errorf("navigate to %s: %w", a.URL, err)
		}
		return nil, nil

	case ActionClick:
		if err := page.Click(a.Selector); err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", ErrElementNotFound, a.Selector, err)
		}
		return nil, nil

	case ActionTypeText:
		if err := page.Type(a.Selector, a.Text); err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", ErrElementNotFound, a.Selector, err)
		}
		return nil, nil

	case ActionWait:
		page.WaitForTimeout(a.DelayMs)
		return nil, nil

	case ActionWaitForSelector:
		if err := page.WaitForSelector(a.Selector); err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", ErrSelectorTimeout, a.Selector, err)
		}
		return nil, nil

	case ActionGetText:
		text, err := page.GetText(a.Selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", ErrElementNotFound, a.Selector, err)
		}
		return text, nil

	case ActionScreenshot:
		return page.Screenshot(a.FullPage)

	case ActionEvaluate:
		return page.Evaluate(a.Script)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, a.Type)
	}
}
