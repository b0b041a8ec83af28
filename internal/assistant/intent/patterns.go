package intent

import (
	"regexp"
	"strings"
)

// Match is a Pattern Matcher hit.
type Match struct {
	Intent ID
	Reply  string
}

type basePattern struct {
	intent ID
	re     *regexp.Regexp
	reply  string
}

// Whole-message, case-insensitive; trailing punctuation and spaces are tolerated.
const tail = `[\s!.?,~]*$`

var basePatterns = []basePattern{
	{
		intent: Greeting,
		re:     regexp.MustCompile(`(?i)^(hi|hello|hey|hiya|howdy|greetings|good\s+(morning|afternoon|evening))(\s+there)?` + tail),
		reply:  "Hello! I can help you find products, manage your cart and wishlist, or check on an order. What would you like to do?",
	},
	{
		intent: Thanks,
		re:     regexp.MustCompile(`(?i)^(thanks|thank\s+you|thx|ty|cheers|much\s+appreciated)(\s+(so\s+much|a\s+lot|very\s+much))?` + tail),
		reply:  "You're welcome! Let me know if there is anything else I can do.",
	},
	{
		intent: Help,
		re:     regexp.MustCompile(`(?i)^(help|help\s+me|what\s+can\s+you\s+do|how\s+does\s+this\s+work|commands|menu)` + tail),
		reply:  "You can ask me to search for products, show product details, add or remove items from your cart or wishlist, or check your orders and vouchers.",
	},
	{
		intent: Confirm,
		re:     regexp.MustCompile(`(?i)^(yes|yeah|yep|yup|y|sure|ok|okay|confirm|confirmed|do\s+it|go\s+ahead|please\s+do)(\s+please)?` + tail),
		reply:  "Okay.",
	},
	{
		intent: Reject,
		re:     regexp.MustCompile(`(?i)^(no|nope|nah|n|cancel|never\s*mind|don'?t|do\s+not|stop|forget\s+it)(,?\s+(thanks|thank\s+you))?` + tail),
		reply:  "Okay, I won't do that.",
	},
}

// MatchPattern runs the fast path. It never calls out and its hit always wins
// over the classifier for the same message.
func MatchPattern(message string) (Match, bool) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Match{}, false
	}
	for _, p := range basePatterns {
		if p.re.MatchString(msg) {
			return Match{Intent: p.intent, Reply: p.reply}, true
		}
	}
	return Match{}, false
}
