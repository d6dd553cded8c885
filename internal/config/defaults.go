package config

const (
	defaultDataDir              = "~/.local/share/fieldcap"
	defaultLogDir               = "~/.local/share/fieldcap/logs"
	defaultRemoteRequestTimeout = 30
	defaultRefDataTimeout       = 8
	defaultQueueConcurrency     = 3
	defaultQueueMaxRetries      = 3
	defaultQueuePollInterval    = 5
	defaultCurrency             = "KRW"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			RequestTimeout: defaultRemoteRequestTimeout,
			RefDataTimeout: defaultRefDataTimeout,
		},
		Queue: Queue{
			Concurrency:    defaultQueueConcurrency,
			MaxRetries:     defaultQueueMaxRetries,
			BackoffSeconds: []int{1, 2, 4},
			PollInterval:   defaultQueuePollInterval,
			Currency:       defaultCurrency,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Failures:       true,
			Authorization:  true,
			Queue:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
