package captcha

import "context"

var _ Generator = (*Engine)(nil)

// Generate renders the named profile with a fresh random source.
func (e *Engine) Generate(ctx context.Context, profile string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return e.RenderProfile(profile)
}
