package domain

// TokenAlias declares economically-equivalent tokens (e.g. stablecoin
// variants) that are treated as fungible for weight and netting
// purposes. Address is the canonical mint.
type TokenAlias struct {
	Address string
	Aliases []string
}

// AliasResolver resolves a mint to its canonical mint. Resolution is a
// pure lookup; unknown mints resolve to themselves.
type AliasResolver struct {
	canonical map[string]string
}

// NewAliasResolver builds a resolver from an alias table.
func NewAliasResolver(aliases []TokenAlias) *AliasResolver {
	m := make(map[string]string)
	for _, a := range aliases {
		for _, alias := range a.Aliases {
			m[alias] = a.Address
		}
	}
	return &AliasResolver{canonical: m}
}

// Resolve returns the canonical mint for a mint, identity otherwise.
func (r *AliasResolver) Resolve(mint string) string {
	if r == nil {
		return mint
	}
	if canonical, ok := r.canonical[mint]; ok {
		return canonical
	}
	return mint
}
