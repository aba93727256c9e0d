package registrar

import "context"

const (
	// MaxSuggestionResults is the registrar's hard ceiling for maxResult.
	MaxSuggestionResults = 50

	// StatusAvailable is the responseMsg.statusCode meaning "available".
	StatusAvailable = 200
)

// IsUpstreamStatus reports payload status codes that describe the
// registrar or our account rather than the queried name: bad credentials,
// quota, server faults.
func IsUpstreamStatus(code int) bool {
	switch {
	case code == 401, code == 403, code == 429:
		return true
	default:
		return code >= 500
	}
}

// API is the registrar surface the fetchers depend on. Implementations
// return decoded payloads or a classified *Error; interpreting status codes
// inside a payload is left to the caller.
type API interface {
	CheckDomainAvailable(ctx context.Context, domain string) (AvailabilityPayload, error)
	DomainSuggestions(ctx context.Context, keyword string, maxResults int) (SuggestionPayload, error)
	TLDSuggestions(ctx context.Context, domain string) (TLDPayload, error)
}

// ResponseMsg is the envelope every endpoint returns.
type ResponseMsg struct {
	StatusCode Int  `json:"statusCode"`
	Message    Text `json:"message"`

	// Only populated by domainSuggestion.
	RegistryDomainSuggestionList []SuggestionEntry `json:"registryDomainSuggestionList"`
}

// AvailabilityPayload is the checkdomainavailable response.
type AvailabilityPayload struct {
	ResponseMsg  *ResponseMsg     `json:"responseMsg"`
	ResponseData AvailabilityData `json:"responseData"`
}

type AvailabilityData struct {
	Available       Bool   `json:"available"`
	RegistrationFee Amount `json:"registrationFee"`
	RenewalFee      Amount `json:"renewalfee"`
	TransferFee     Amount `json:"transferFee"`
}

// SuggestionPayload is the domainSuggestion response.
type SuggestionPayload struct {
	ResponseMsg *ResponseMsg `json:"responseMsg"`
}

// Suggestions returns the suggestion list, or nil when the envelope is absent.
func (p SuggestionPayload) Suggestions() []SuggestionEntry {
	if p.ResponseMsg == nil {
		return nil
	}
	return p.ResponseMsg.RegistryDomainSuggestionList
}

type SuggestionEntry struct {
	DomainName Text   `json:"domainName"`
	Price      Amount `json:"price"`
}

// TLDPayload is the getTldSuggestion response.
type TLDPayload struct {
	ResponseMsg  *ResponseMsg `json:"responseMsg"`
	ResponseData []TLDEntry   `json:"responseData"`
}

type TLDEntry struct {
	WebsiteName Text `json:"websiteName"`
	Available   Bool `json:"available"`
	DomainType  Text `json:"domainType"`
}
