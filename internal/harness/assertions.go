package harness

import (
	"fmt"
	"slices"
)

// checkExpect compares a step outcome with its expect clause and returns
// failure messages. A step without an expect clause must not fail.
func checkExpect(index int, step Step, event TraceEvent, err error) []string {
	prefix := fmt.Sprintf("steps[%d] (%s)", index, step.Op)
	exp := step.Expect

	if exp == nil || exp.Error == "" {
		if err != nil {
			return []string{fmt.Sprintf("%s: unexpected error: %v", prefix, err)}
		}
	} else {
		if err == nil {
			return []string{fmt.Sprintf("%s: expected %s error, got success", prefix, exp.Error)}
		}
		if event.Error != exp.Error {
			return []string{fmt.Sprintf("%s: expected %s error, got %s: %v", prefix, exp.Error, event.Error, err)}
		}
		return nil
	}

	if exp == nil {
		return nil
	}

	var errs []string

	if exp.Bodies != nil {
		got := make([]string, len(event.Messages))
		for i, m := range event.Messages {
			got[i] = m.Body
		}
		if !slices.Equal(got, exp.Bodies) {
			errs = append(errs, fmt.Sprintf("%s: bodies = %q, want %q", prefix, got, exp.Bodies))
		}
	}

	if exp.IDs != nil {
		got := make([]int64, len(event.Messages))
		for i, m := range event.Messages {
			got[i] = m.ID
		}
		if !slices.Equal(got, exp.IDs) {
			errs = append(errs, fmt.Sprintf("%s: ids = %v, want %v", prefix, got, exp.IDs))
		}
	}

	if exp.Count != nil {
		switch {
		case event.Count == nil:
			errs = append(errs, fmt.Sprintf("%s: count expected but step reports none", prefix))
		case *event.Count != *exp.Count:
			errs = append(errs, fmt.Sprintf("%s: count = %d, want %d", prefix, *event.Count, *exp.Count))
		}
	}

	if exp.Logging != nil {
		switch {
		case event.Logging == nil:
			errs = append(errs, fmt.Sprintf("%s: logging expected but step reports none", prefix))
		case *event.Logging != *exp.Logging:
			errs = append(errs, fmt.Sprintf("%s: logging = %t, want %t", prefix, *event.Logging, *exp.Logging))
		}
	}

	return errs
}
