package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	ListenWindowMs      int      `yaml:"listenWindowMs"`
	MX                  int      `yaml:"mx"`
	MulticastAddress    string   `yaml:"multicastAddress"`
	MulticastPort       int      `yaml:"multicastPort"`
	NetworkInterface    string   `yaml:"networkInterface,omitempty"`
	ServiceTypes        []string `yaml:"serviceTypes"`
	Vendor              string   `yaml:"vendor"`
	LikelyThreshold     int      `yaml:"likelyThreshold"`
	DescriptorTimeoutMs int      `yaml:"descriptorTimeoutMs"`
	StatusTimeoutMs     int      `yaml:"statusTimeoutMs"`
	ConnectTimeoutMs    int      `yaml:"connectTimeoutMs"`
	SettleDelayMs       int      `yaml:"settleDelayMs"`
	UserAgent           string   `yaml:"userAgent"`
	AppName             string   `yaml:"appName"`
	Token               string   `yaml:"token,omitempty"`
	RemotePort          int      `yaml:"remotePort"`
	RepeatCount         int      `yaml:"count"`
	InterSendDelayMs    int      `yaml:"delayMs"`
	Concurrency         int      `yaml:"concurrency"`
	ProbeRatePPS        int      `yaml:"probeRatePPS"`
	PingHint            bool     `yaml:"pingHint"`
	APIListen           string   `yaml:"apiListen"`
}
