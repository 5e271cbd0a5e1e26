package config

const (
	defaultStateFile              = "~/.local/share/auto3d/auto3d_state.json"
	defaultHistoryDB              = "~/.local/share/auto3d/history.db"
	defaultLogDir                 = "~/.local/share/auto3d/logs"
	defaultLogRetentionDays       = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultCatalogAPIVersion      = "2025-04"
	defaultCatalogPageSize        = 15
	defaultMetafieldNamespace     = "auto3d"
	defaultCatalogRequestTimeout  = 30
	defaultGeneratorBaseURL       = "https://api.meshy.ai"
	defaultGeneratorPollInterval  = 4
	defaultGeneratorAssetFormat   = "glb"
	defaultGeneratorTimeout       = 60
	defaultWorkflowPollInterval   = 5
	defaultUploadFilename         = "auto3d.glb"
	defaultErrorMessageLimit      = 120
	defaultNotifyRequestTimeout   = 10
	maxCatalogPageSize            = 250
	defaultNotificationsOnAttach  = true
	defaultNotificationsOnFailure = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateFile: defaultStateFile,
			HistoryDB: defaultHistoryDB,
			LogDir:    defaultLogDir,
		},
		Catalog: Catalog{
			APIVersion:         defaultCatalogAPIVersion,
			PageSize:           defaultCatalogPageSize,
			MetafieldNamespace: defaultMetafieldNamespace,
			RequestTimeout:     defaultCatalogRequestTimeout,
		},
		Generator: Generator{
			BaseURL:        defaultGeneratorBaseURL,
			PollInterval:   defaultGeneratorPollInterval,
			AssetFormat:    defaultGeneratorAssetFormat,
			EnableTexture:  true,
			RequestTimeout: defaultGeneratorTimeout,
		},
		Workflow: Workflow{
			PollInterval:      defaultWorkflowPollInterval,
			UploadFilename:    defaultUploadFilename,
			ErrorMessageLimit: defaultErrorMessageLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Attached:       defaultNotificationsOnAttach,
			Failed:         defaultNotificationsOnFailure,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
