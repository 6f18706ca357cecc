// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the singleton validator instance. Thread-safe.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	// The backoff schedule must finish in reasonable time or the UI
	// appears hung: total worst-case wait is base * n(n-1)/2.
	n := c.Fetch.RetryAttempts
	worst := c.Fetch.RetryBaseDelay * time.Duration(n*(n-1)/2)
	if worst > 2*time.Minute {
		return fmt.Errorf("fetch retry schedule too slow: worst case %s", worst)
	}

	return nil
}
