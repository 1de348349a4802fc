package domain

// ProxyStrategy is an ordered list of proxy templates with an active index.
// The index is always within bounds when templates are present.
type ProxyStrategy struct {
	Templates []string `json:"templates"`
	Index     int      `json:"index"`
	Enabled   bool     `json:"enabled"`
}

// Active returns the selected template, or "" when there is none.
func (s ProxyStrategy) Active() string {
	if s.Index < 0 || s.Index >= len(s.Templates) {
		return ""
	}
	return s.Templates[s.Index]
}

// ProxyStatus is the user-visible routing state.
type ProxyStatus struct {
	ProxyStrategy
	Environment string `json:"environment"`
	// EffectiveURL is the base URL requests currently go to.
	EffectiveURL string `json:"effectiveUrl"`
}
