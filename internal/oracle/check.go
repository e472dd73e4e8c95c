package oracle

import (
	"context"
	"time"

	"github.com/ppiankov/estatuto/internal/model"
)

// CredentialStatus is the outcome of checking one credential
type CredentialStatus struct {
	Index     int
	Provider  string
	Model     string
	Available bool
	Err       error
}

// CheckCredentials builds the provider for each credential in order and asks
// whether it answers. timeout bounds each check; zero means ctx alone.
func CheckCredentials(ctx context.Context, creds []model.Credential, factory Factory, timeout time.Duration) []CredentialStatus {
	out := make([]CredentialStatus, 0, len(creds))
	for i, cred := range creds {
		st := CredentialStatus{Index: i + 1, Provider: cred.Provider, Model: cred.Model}

		provider, err := factory(cred)
		if err != nil {
			st.Err = err
			out = append(out, st)
			continue
		}
		st.Provider = provider.Name()

		checkCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		st.Available = provider.IsAvailable(checkCtx)
		cancel()

		out = append(out, st)
	}
	return out
}

// Check runs CheckCredentials over the pool's credentials
func (p *Pool) Check(ctx context.Context) []CredentialStatus {
	return CheckCredentials(ctx, p.creds, p.factory, p.opts.Timeout)
}
