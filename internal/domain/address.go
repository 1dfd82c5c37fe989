package domain

// AddressFieldSet is one language's copy of a single-property address in the wizard.
// Zero values stand for "not entered".
type AddressFieldSet struct {
	Language       Language `json:"language" validate:"required,oneof=ENG CYM GAE"`
	Usrn           int64    `json:"usrn" validate:"gte=0"`
	PostcodeRef    int64    `json:"postcodeRef" validate:"gte=0"`
	PostTownRef    int64    `json:"postTownRef" validate:"gte=0"`
	SubLocalityRef int64    `json:"subLocalityRef" validate:"gte=0"`

	SaoStartNumber int    `json:"saoStartNumber" validate:"gte=0,lte=9999"`
	SaoStartSuffix string `json:"saoStartSuffix" validate:"omitempty,len=1,alpha"`
	SaoEndNumber   int    `json:"saoEndNumber" validate:"gte=0,lte=9999"`
	SaoEndSuffix   string `json:"saoEndSuffix" validate:"omitempty,len=1,alpha"`
	SaoText        string `json:"saoText" validate:"max=90"`

	PaoStartNumber int    `json:"paoStartNumber" validate:"gte=0,lte=9999"`
	PaoStartSuffix string `json:"paoStartSuffix" validate:"omitempty,len=1,alpha"`
	PaoEndNumber   int    `json:"paoEndNumber" validate:"gte=0,lte=9999"`
	PaoEndSuffix   string `json:"paoEndSuffix" validate:"omitempty,len=1,alpha"`
	PaoText        string `json:"paoText" validate:"max=90"`
}

// Range types.
const (
	RangeTypeSao = 1
	RangeTypePao = 2
)

// Numbering schemes for ranges.
const (
	NumberingConsecutive = 1
	NumberingOdd         = 2
	NumberingEven        = 3
)

// AddressRangeSet is one language's copy of a multi-property range in the wizard.
type AddressRangeSet struct {
	Language       Language `json:"language" validate:"required,oneof=ENG CYM GAE"`
	Usrn           int64    `json:"usrn" validate:"gte=0"`
	PostcodeRef    int64    `json:"postcodeRef" validate:"gte=0"`
	PostTownRef    int64    `json:"postTownRef" validate:"gte=0"`
	SubLocalityRef int64    `json:"subLocalityRef" validate:"gte=0"`

	RangeType        int    `json:"rangeType" validate:"omitempty,oneof=1 2"`
	RangeStartPrefix string `json:"rangeStartPrefix" validate:"max=30"`
	RangeStartNumber int    `json:"rangeStartNumber" validate:"gte=0,lte=9999"`
	RangeStartSuffix string `json:"rangeStartSuffix" validate:"omitempty,len=1,alpha"`
	RangeEndPrefix   string `json:"rangeEndPrefix" validate:"max=30"`
	RangeEndNumber   int    `json:"rangeEndNumber" validate:"omitempty,lte=9999,gtefield=RangeStartNumber"`
	RangeEndSuffix   string `json:"rangeEndSuffix" validate:"omitempty,len=1,alpha"`
	Numbering        int    `json:"numbering" validate:"omitempty,oneof=1 2 3"`
	RangeText        string `json:"rangeText" validate:"max=90"`

	PaoStartNumber int    `json:"paoStartNumber" validate:"gte=0,lte=9999"`
	PaoStartSuffix string `json:"paoStartSuffix" validate:"omitempty,len=1,alpha"`
	PaoEndNumber   int    `json:"paoEndNumber" validate:"gte=0,lte=9999"`
	PaoEndSuffix   string `json:"paoEndSuffix" validate:"omitempty,len=1,alpha"`
	PaoText        string `json:"paoText" validate:"max=90"`

	AddressList []AddressListEntry `json:"addressList" validate:"dive"`
}

// AddressListEntry is one generated unit of a range.
type AddressListEntry struct {
	SaoStartNumber int    `json:"saoStartNumber" validate:"gte=0,lte=9999"`
	SaoStartSuffix string `json:"saoStartSuffix"`
	SaoText        string `json:"saoText" validate:"max=90"`
	PaoStartNumber int    `json:"paoStartNumber" validate:"gte=0,lte=9999"`
	PaoStartSuffix string `json:"paoStartSuffix"`
	PaoText        string `json:"paoText" validate:"max=90"`
	MapLabel       string `json:"mapLabel"`
	Address        string `json:"address"`
	PostcodeRef    int64  `json:"postcodeRef"`
	PostTownRef    int64  `json:"postTownRef"`
}
