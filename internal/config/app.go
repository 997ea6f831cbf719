package config

type AppConfig struct {
	Client ClientConfig
	Bot    BotConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	clientCfg, err := LoadClient()
	if err != nil {
		return AppConfig{}, err
	}
	botCfg, err := LoadBot()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Client: clientCfg,
		Bot:    botCfg,
		Log:    logCfg,
	}, nil
}
