package sproutbank

type Config struct {
	Listen   string `yaml:"listen"`
	Database struct {
		ConnectionString string `yaml:"conn_str"`
	} `yaml:"database"`
	Scheduler struct {
		Interval string `yaml:"interval"`
	} `yaml:"scheduler"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Limits struct {
		CreateAccount int64 `yaml:"create_account"`
		Charge        int64 `yaml:"charge"`
		Read          int64 `yaml:"read"`
		Statement     int64 `yaml:"statement"`
	} `yaml:"limits"`
}
