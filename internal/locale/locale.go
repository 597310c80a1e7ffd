package locale

// Fixed user-visible texts. The degraded text is the single fallback for
// every way a remote run can end badly; callers never leak error detail
// to the chat.
const (
	DegradedServiceText = "The assistant can't respond right now, please try again later."
	ForgetText          = "OK, I've cleared our conversation."
	ContinueLabel       = "Continue"
)

const KeyDefaultAITone = "default_ai_tone"

var entries = map[string]func(tone string) string{
	KeyDefaultAITone: func(tone string) string {
		if tone == "" {
			return ""
		}
		return "(answer in a " + tone + " tone) "
	},
}

// T looks up a tone-parameterized string by key. Unknown keys resolve to
// an empty producer rather than an error.
func T(key string) func(tone string) string {
	if fn, ok := entries[key]; ok {
		return fn
	}
	return func(string) string { return "" }
}
