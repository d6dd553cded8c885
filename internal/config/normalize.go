package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	c.Remote.APIToken = strings.TrimSpace(c.Remote.APIToken)
	c.Session.OrganizationID = strings.TrimSpace(c.Session.OrganizationID)
	c.Session.UserID = strings.TrimSpace(c.Session.UserID)
	c.Queue.Currency = strings.ToUpper(strings.TrimSpace(c.Queue.Currency))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = defaultRemoteRequestTimeout
	}
	if c.Remote.RefDataTimeout <= 0 {
		c.Remote.RefDataTimeout = defaultRefDataTimeout
	}
	if c.Queue.Concurrency <= 0 {
		c.Queue.Concurrency = defaultQueueConcurrency
	}
	if c.Queue.MaxRetries <= 0 {
		c.Queue.MaxRetries = defaultQueueMaxRetries
	}
	if len(c.Queue.BackoffSeconds) == 0 {
		c.Queue.BackoffSeconds = []int{1, 2, 4}
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = defaultQueuePollInterval
	}
	if c.Queue.Currency == "" {
		c.Queue.Currency = defaultCurrency
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
