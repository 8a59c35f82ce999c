package features

// RansomwareInput is a static + dynamic PE analysis record. Numeric fields are
// lenient: strings that do not parse read as 0.
type RansomwareInput struct {
	APIVector                  float64 `json:"ApiVector"`
	DllVector                  float64 `json:"DllVector"`
	NumberOfSections           float64 `json:"NumberOfSections"`
	CreationYear               float64 `json:"CreationYear"`
	ResourcesMeanEntropy       float64 `json:"resources_mean_entropy"`
	SusSections                float64 `json:"sus_sections"`
	Packer                     float64 `json:"packer"`
	EText                      float64 `json:"E_text"`
	EData                      float64 `json:"E_data"`
	OsVersion                  string  `json:"OsVersion"`
	Subsystem                  string  `json:"Subsystem"`
	Machine                    string  `json:"Machine"`
	RegistryDelete             float64 `json:"registry_delete"`
	MinorLinkerVersion         float64 `json:"MinorLinkerVersion"`
	Magic                      float64 `json:"Magic"`
	SizeofStackReserve         float64 `json:"SizeofStackReserve"`
	ExportRVA                  float64 `json:"ExportRVA"`
	APIs                       float64 `json:"apis"`
	RdataVirtualSize           float64 `json:"rdata_VirtualSize"`
	MinExtraParagraphs         float64 `json:"min_extra_paragraphs"`
	ExportSize                 float64 `json:"ExportSize"`
	RdataCharacteristics       float64 `json:"rdata_Characteristics"`
	IatVRA                     float64 `json:"IatVRA"`
	MagicNumber                float64 `json:"magic_number"`
	PEType                     float64 `json:"PEType"`
	LoaderFlags                float64 `json:"LoaderFlags"`
	PagesInFile                float64 `json:"pages_in_file"`
	TextVirtualAddress         float64 `json:"text_VirtualAddress"`
	RdataVirtualAddress        float64 `json:"rdata_VirtualAddress"`
	SizeofStackCommit          float64 `json:"SizeofStackCommit"`
	InitSSValue                float64 `json:"init_ss_value"`
	OEMIdentifier              float64 `json:"oem_identifier"`
	SizeOfUninitializedData    float64 `json:"SizeOfUninitializedData"`
	SectionAlignment           float64 `json:"SectionAlignment"`
	MajorImageVersion          float64 `json:"MajorImageVersion"`
	MachineType                string  `json:"MachineType"`
	TextPointerToLineNumbers   float64 `json:"text_PointerToLineNumbers"`
	MaxExtraParagraphs         float64 `json:"max_extra_paragraphs"`
	RdataPointerToRawData      float64 `json:"rdata_PointerToRawData"`
	SizeOfHeader               float64 `json:"size_of_header"`
	TextPointerToRelocations   float64 `json:"text_PointerToRelocations"`
	OperatingSystemVersion     float64 `json:"OperatingSystemVersion"`
	BitcoinAddresses           float64 `json:"BitcoinAddresses"`
	SizeOfInitializedData      float64 `json:"SizeOfInitializedData"`
	BaseOfData                 float64 `json:"BaseOfData"`
	Family                     string  `json:"Family"`
	SizeOfStackReserve         float64 `json:"SizeOfStackReserve"`
	ProcessesSuspicious        float64 `json:"processes_suspicious"`
	MajorLinkerVersion         float64 `json:"MajorLinkerVersion"`
	RegistryWrite              float64 `json:"registry_write"`
	NetworkThreats             float64 `json:"network_threats"`
	InitSPValue                float64 `json:"init_sp_value"`
	SizeOfHeaders              float64 `json:"SizeOfHeaders"`
	FilesMalicious             float64 `json:"files_malicious"`
	RegistryTotal              float64 `json:"registry_total"`
	SizeOfCode                 float64 `json:"SizeOfCode"`
	DllsCalls                  float64 `json:"dlls_calls"`
	MajorOSVersion             float64 `json:"MajorOSVersion"`
	TextCharacteristics        float64 `json:"text_Characteristics"`
	ProcessesMonitored         float64 `json:"processes_monitored"`
	FilesSuspicious            float64 `json:"files_suspicious"`
	AddressOfEntryPoint        float64 `json:"AddressOfEntryPoint"`
	DllCharacteristicsY        float64 `json:"DllCharacteristics_y"`
	Category                   string  `json:"Category"`
	TextSizeOfRawData          float64 `json:"text_SizeOfRawData"`
	EntryPoint                 float64 `json:"EntryPoint"`
	DebugRVA                   float64 `json:"DebugRVA"`
	TextVirtualSize            float64 `json:"text_VirtualSize"`
	Class                      float64 `json:"Class"`
	InitCSValue                float64 `json:"init_cs_value"`
	TotalProcesses             float64 `json:"total_procsses"`
	AddressOfNeHeader          float64 `json:"address_of_ne_header"`
	ImageVersion               float64 `json:"ImageVersion"`
	DebugSize                  float64 `json:"DebugSize"`
	FilesUnknown               float64 `json:"files_unknown"`
	RegistryRead               float64 `json:"registry_read"`
	FileExtension              string  `json:"file_extension"`
	RdataSizeOfRawData         float64 `json:"rdata_SizeOfRawData"`
	FilesText                  float64 `json:"files_text"`
	ImageBase                  float64 `json:"ImageBase"`
	InitIPValue                float64 `json:"init_ip_value"`
	NetworkConnections         float64 `json:"network_connections"`
	TextPointerToRawData       float64 `json:"text_PointerToRawData"`
	FileAlignment              float64 `json:"FileAlignment"`
	NetworkDNS                 float64 `json:"network_dns"`
	ProcessesMalicious         float64 `json:"processes_malicious"`
	SizeOfImage                float64 `json:"SizeOfImage"`
	RdataPointerToRelocations  float64 `json:"rdata_PointerToRelocations"`
	SizeofHeapReserve          float64 `json:"SizeofHeapReserve"`
	SizeofHeapCommit           float64 `json:"SizeofHeapCommit"`
	DllCharacteristicsX        float64 `json:"DllCharacteristics_x"`
	NetworkHTTP                float64 `json:"network_http"`
	RdataPointerToLineNumbers  float64 `json:"rdata_PointerToLineNumbers"`
	OverLayNumber              float64 `json:"over_lay_number"`
	BytesOnLastPage            float64 `json:"bytes_on_last_page"`
	ResourceSize               float64 `json:"ResourceSize"`
	Relocations                float64 `json:"relocations"`
	Checksum                   float64 `json:"Checksum"`
	BaseOfCode                 float64 `json:"BaseOfCode"`
}

func DefaultRansomwareInput() RansomwareInput {
	return RansomwareInput{
		OsVersion:     Unknown,
		Subsystem:     Unknown,
		Machine:       Unknown,
		MachineType:   Unknown,
		Family:        Unknown,
		Category:      Unknown,
		FileExtension: Unknown,
	}
}

func (RansomwareInput) Kind() string { return KindRansomware }
func (RansomwareInput) sealed() {}

func (in RansomwareInput) Extract() (Mapping, error) { return structMapping(in) }
