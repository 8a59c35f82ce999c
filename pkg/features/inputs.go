package features

// Input kinds, one per model family.
const (
	KindPhishing   = "phishing"
	KindMalware    = "malware"
	KindRansomware = "ransomware"
	KindNetwork    = "network-intrusion"
	KindZeroDay    = "zero-day"
)

// RawInput is the closed set of per-family inputs. Each variant knows how to
// turn itself into a feature mapping.
type RawInput interface {
	Kind() string
	Extract() (Mapping, error)
	sealed()
}

// PhishingInput is a reported email or message with an optional link.
type PhishingInput struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	URL     string `json:"url"`
}

func DefaultPhishingInput() PhishingInput { return PhishingInput{} }

func (PhishingInput) Kind() string { return KindPhishing }
func (PhishingInput) sealed() {}

// Extract computes URL and text features.
func (in PhishingInput) Extract() (Mapping, error) {
	return ExtractPhishing(in.Subject, in.Body, in.URL), nil
}

// MalwareInput is a Linux process/task snapshot.
type MalwareInput struct {
	Millisecond     int64 `json:"millisecond"`
	State           int64 `json:"state"`
	UsageCounter    int64 `json:"usage_counter"`
	Prio            int64 `json:"prio"`
	StaticPrio      int64 `json:"static_prio"`
	NormalPrio      int64 `json:"normal_prio"`
	Policy          int64 `json:"policy"`
	VMPgoff         int64 `json:"vm_pgoff"`
	VMTruncateCount int64 `json:"vm_truncate_count"`
	TaskSize        int64 `json:"task_size"`
	CachedHoleSize  int64 `json:"cached_hole_size"`
	FreeAreaCache   int64 `json:"free_area_cache"`
	MMUsers         int64 `json:"mm_users"`
	MapCount        int64 `json:"map_count"`
	HiwaterRSS      int64 `json:"hiwater_rss"`
	TotalVM         int64 `json:"total_vm"`
	SharedVM        int64 `json:"shared_vm"`
	ExecVM          int64 `json:"exec_vm"`
	ReservedVM      int64 `json:"reserved_vm"`
	NrPtes          int64 `json:"nr_ptes"`
	EndData         int64 `json:"end_data"`
	LastInterval    int64 `json:"last_interval"`
	Nvcsw           int64 `json:"nvcsw"`
	Nivcsw          int64 `json:"nivcsw"`
	MinFlt          int64 `json:"min_flt"`
	MajFlt          int64 `json:"maj_flt"`
	FSExclCounter   int64 `json:"fs_excl_counter"`
	Lock            int64 `json:"lock"`
	Utime           int64 `json:"utime"`
	Stime           int64 `json:"stime"`
	Gtime           int64 `json:"gtime"`
	Cgtime          int64 `json:"cgtime"`
	SignalNvcsw     int64 `json:"signal_nvcsw"`
}

func DefaultMalwareInput() MalwareInput { return MalwareInput{} }

func (MalwareInput) Kind() string { return KindMalware }
func (MalwareInput) sealed() {}

func (in MalwareInput) Extract() (Mapping, error) { return structMapping(in) }

// NetworkInput is one KDD-style connection record.
type NetworkInput struct {
	Duration                int64   `json:"duration"`
	ProtocolType            string  `json:"protocol_type"`
	Service                 string  `json:"service"`
	Flag                    string  `json:"flag"`
	SrcBytes                int64   `json:"src_bytes"`
	DstBytes                int64   `json:"dst_bytes"`
	Land                    int64   `json:"land"`
	WrongFragment           int64   `json:"wrong_fragment"`
	Urgent                  int64   `json:"urgent"`
	Hot                     int64   `json:"hot"`
	NumFailedLogins         int64   `json:"num_failed_logins"`
	LoggedIn                int64   `json:"logged_in"`
	NumCompromised          int64   `json:"num_compromised"`
	RootShell               int64   `json:"root_shell"`
	SuAttempted             int64   `json:"su_attempted"`
	NumRoot                 int64   `json:"num_root"`
	NumFileCreations        int64   `json:"num_file_creations"`
	NumShells               int64   `json:"num_shells"`
	NumAccessFiles          int64   `json:"num_access_files"`
	NumOutboundCmds         int64   `json:"num_outbound_cmds"`
	IsHostLogin             int64   `json:"is_host_login"`
	IsGuestLogin            int64   `json:"is_guest_login"`
	Count                   int64   `json:"count"`
	SrvCount                int64   `json:"srv_count"`
	SerrorRate              float64 `json:"serror_rate"`
	SrvSerrorRate           float64 `json:"srv_serror_rate"`
	RerrorRate              float64 `json:"rerror_rate"`
	SrvRerrorRate           float64 `json:"srv_rerror_rate"`
	SameSrvRate             float64 `json:"same_srv_rate"`
	DiffSrvRate             float64 `json:"diff_srv_rate"`
	SrvDiffHostRate         float64 `json:"srv_diff_host_rate"`
	DstHostCount            int64   `json:"dst_host_count"`
	DstHostSrvCount         int64   `json:"dst_host_srv_count"`
	DstHostSameSrvRate      float64 `json:"dst_host_same_srv_rate"`
	DstHostDiffSrvRate      float64 `json:"dst_host_diff_srv_rate"`
	DstHostSameSrcPortRate  float64 `json:"dst_host_same_src_port_rate"`
	DstHostSrvDiffHostRate  float64 `json:"dst_host_srv_diff_host_rate"`
	DstHostSerrorRate       float64 `json:"dst_host_serror_rate"`
	DstHostSrvSerrorRate    float64 `json:"dst_host_srv_serror_rate"`
	DstHostRerrorRate       float64 `json:"dst_host_rerror_rate"`
	DstHostSrvRerrorRate    float64 `json:"dst_host_srv_rerror_rate"`
}

func DefaultNetworkInput() NetworkInput {
	return NetworkInput{ProtocolType: "tcp", Service: "http", Flag: "SF"}
}

func (NetworkInput) Kind() string { return KindNetwork }
func (NetworkInput) sealed() {}

func (in NetworkInput) Extract() (Mapping, error) { return structMapping(in) }

// ZeroDayInput is an enriched telemetry event. Several wire names contain
// spaces or hyphens; those are the names the model was trained on.
type ZeroDayInput struct {
	Protocol             string  `json:"protocol"`
	Flag                 string  `json:"flag"`
	Family               string  `json:"family"`
	Seddaddress          string  `json:"seddaddress"`
	Expaddress           string  `json:"expaddress"`
	IPAddress            string  `json:"ip address"`
	UserAgent            string  `json:"user-agent"`
	Geolocation          string  `json:"geolocation"`
	EventDescription     string  `json:"event description"`
	Duration             int64   `json:"duration"`
	SrcBytes             int64   `json:"src_bytes"`
	DstBytes             int64   `json:"dst_bytes"`
	Land                 int64   `json:"land"`
	WrongFragment        int64   `json:"wrong_fragment"`
	Urgent               int64   `json:"urgent"`
	Hot                  int64   `json:"hot"`
	NumFailedLogins      int64   `json:"num_failed_logins"`
	LoggedIn             int64   `json:"logged_in"`
	NumCompromised       int64   `json:"num_compromised"`
	RootShell            int64   `json:"root_shell"`
	SuAttempted          int64   `json:"su_attempted"`
	NumRoot              int64   `json:"num_root"`
	Count                int64   `json:"count"`
	SrvCount             int64   `json:"srv_count"`
	SerrorRate           float64 `json:"serror_rate"`
	SrvSerrorRate        float64 `json:"srv_serror_rate"`
	AnomalyScore         float64 `json:"anomaly score"`
	SessionID            string  `json:"session id"`
	Time                 int64   `json:"time"`
	ErrorCode            int64   `json:"error code"`
	LogisticsID          string  `json:"logistics id"`
	NumberOfPackets      int64   `json:"number of packets"`
	NetflowBytes         int64   `json:"netflow bytes"`
	ResponseTime         float64 `json:"response time"`
	DataTransferRate     float64 `json:"data transfer rate"`
	Clusters             int64   `json:"clusters"`
	Port                 int64   `json:"port"`
	Prediction           string  `json:"prediction"`
	USD                  float64 `json:"usd"`
	ApplicationLayerData string  `json:"application layer data"`
	PayloadSize          int64   `json:"payload size"`
	BTC                  float64 `json:"btc"`
}

func DefaultZeroDayInput() ZeroDayInput {
	return ZeroDayInput{
		Protocol:             "tcp",
		Flag:                 "SF",
		Family:               Unknown,
		Seddaddress:          Unknown,
		Expaddress:           Unknown,
		IPAddress:            "127.0.0.1",
		UserAgent:            Unknown,
		Geolocation:          Unknown,
		EventDescription:     Unknown,
		SessionID:            Unknown,
		LogisticsID:          Unknown,
		Prediction:           Unknown,
		ApplicationLayerData: Unknown,
	}
}

func (ZeroDayInput) Kind() string { return KindZeroDay }
func (ZeroDayInput) sealed() {}

func (in ZeroDayInput) Extract() (Mapping, error) { return structMapping(in) }

// zeroDayAliases lets callers use snake_case for the names that contain
// spaces or hyphens on the wire.
var zeroDayAliases = map[string]string{
	"ip_address":             "ip address",
	"user_agent":             "user-agent",
	"event_description":      "event description",
	"anomaly_score":          "anomaly score",
	"session_id":             "session id",
	"error_code":             "error code",
	"logistics_id":           "logistics id",
	"number_of_packets":      "number of packets",
	"netflow_bytes":          "netflow bytes",
	"response_time":          "response time",
	"data_transfer_rate":     "data transfer rate",
	"application_layer_data": "application layer data",
	"payload_size":           "payload size",
}

// Unknown is the categorical default for missing string features.
const Unknown = "unknown"
