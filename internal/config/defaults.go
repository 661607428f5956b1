package config

const (
	defaultDataDir           = "~/.local/share/veracity"
	defaultLogDir            = "~/.local/share/veracity/logs"
	defaultAPIBind           = "127.0.0.1:7519"
	defaultVerifierMode      = "summary"
	defaultVerifierTimeout   = 30
	defaultPollBaseDelay     = 5
	defaultPollDelayCap      = 20
	defaultPollMaxWait       = 120
	defaultPollMaxConcurrent = 16
	defaultPrimaryClaim      = "first"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	verifierAPIKeyEnv        = "VERACITY_VERIFIER_API_KEY"
	verifierBaseURLEnv       = "VERACITY_VERIFIER_BASE_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Verifier: Verifier{
			Mode:           defaultVerifierMode,
			TimeoutSeconds: defaultVerifierTimeout,
		},
		Poll: Poll{
			BaseDelaySeconds: defaultPollBaseDelay,
			DelayCapSeconds:  defaultPollDelayCap,
			MaxWaitSeconds:   defaultPollMaxWait,
			MaxConcurrent:    defaultPollMaxConcurrent,
		},
		Transform: Transform{
			PrimaryClaim: defaultPrimaryClaim,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Started:        true,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
