package imagechat

import (
	"regexp"
	"strings"
)

// Verdict is the outcome of a single intent rule.
type Verdict int

const (
	// Abstain lets the next rule decide.
	Abstain Verdict = iota
	ImageIntent
	TextIntent
)

func (v Verdict) String() string {
	switch v {
	case ImageIntent:
		return "image"
	case TextIntent:
		return "text"
	}
	return "abstain"
}

// IntentRule is one tagged matcher in the classifier's rule table.
type IntentRule struct {
	Name  string
	Match func(text string) Verdict
}

// IntentClassifier evaluates its rules in order; the first non-abstaining
// rule decides. If every rule abstains the text is not an image request.
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier builds a classifier from an ordered rule list.
func NewIntentClassifier(rules ...IntentRule) *IntentClassifier {
	return &IntentClassifier{rules: rules}
}

// DefaultIntentRules returns the built-in rules in precedence order.
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		{Name: "polite-image-request", Match: matchPoliteImageRequest},
		{Name: "interrogative", Match: matchInterrogative},
		{Name: "explicit-verb", Match: matchExplicitVerb},
		{Name: "implicit-noun-phrase", Match: matchImplicitNounPhrase},
	}
}

var defaultClassifier = NewIntentClassifier(DefaultIntentRules()...)

// IsImageRequest reports whether text asks for an image. It is pure and
// never fails; empty text is never an image request.
func IsImageRequest(text string) bool {
	return defaultClassifier.IsImageRequest(text)
}

// IsImageRequest reports whether text asks for an image.
func (c *IntentClassifier) IsImageRequest(text string) bool {
	_, verdict := c.Classify(text)
	return verdict == ImageIntent
}

// Classify returns the name of the deciding rule and its verdict. The name
// is empty when every rule abstained.
func (c *IntentClassifier) Classify(text string) (string, Verdict) {
	normalized := normalizeIntentText(text)
	if normalized == "" {
		return "", TextIntent
	}
	for _, rule := range c.rules {
		if v := rule.Match(normalized); v != Abstain {
			return rule.Name, v
		}
	}
	return "", TextIntent
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeIntentText(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.NewReplacer("’", "'", "‘", "'").Replace(t)
	return whitespaceRun.ReplaceAllString(t, " ")
}

const (
	imageVerbs = `draw|paint|sketch|illustrate|render|doodle|visuali[sz]e`
	makeVerbs  = `create|generate|make|produce|design|imagine|craft`
	imageNouns = `image|images|picture|pictures|pic|photo|photos|photograph|illustration|drawing|painting|artwork|art|logo|icon|portrait|wallpaper|poster|sketch|render|rendering|avatar|banner|sticker|meme|graphic|scene`
)

var (
	politeImageRequest = regexp.MustCompile(
		`^(?:please\s+)?(?:can|could|would|will)\s+you\s+(?:please\s+)?(?:` + imageVerbs + `|show\s+me|(?:` + makeVerbs + `)\b.*\b(?:` + imageNouns + `))\b`)

	interrogativePrefix = regexp.MustCompile(
		`^(?:what|what's|whats|how|why|who|whom|whose|when|where|which|is|are|was|were|does|do|did|can|could|should|would|will|shall|may|might|has|have|had)\b`)

	explanatoryPrefix = regexp.MustCompile(
		`^(?:please\s+)?(?:tell\s+me|explain|describe\s+(?:how|why|what)|define|summari[sz]e|translate|compare|list|teach\s+me|help\s+me\s+(?:understand|with))\b`)

	explicitImageVerb = regexp.MustCompile(`\b(?:` + imageVerbs + `)\b`)
	makeImageNoun     = regexp.MustCompile(`\b(?:` + makeVerbs + `)\b.*\b(?:` + imageNouns + `)\b`)
	showMe            = regexp.MustCompile(`\bshow\s+me\b`)
	imageOf           = regexp.MustCompile(`\b(?:picture|pic|image|photo|photograph|drawing|painting|illustration|portrait|sketch|render)\s+of\b`)
)

// matchPoliteImageRequest catches image requests phrased as questions
// ("can you draw ...") before the interrogative rule sees them.
func matchPoliteImageRequest(text string) Verdict {
	if politeImageRequest.MatchString(text) {
		return ImageIntent
	}
	return Abstain
}

func matchInterrogative(text string) Verdict {
	if interrogativePrefix.MatchString(text) || explanatoryPrefix.MatchString(text) {
		return TextIntent
	}
	if strings.HasSuffix(text, "?") {
		return TextIntent
	}
	return Abstain
}

func matchExplicitVerb(text string) Verdict {
	switch {
	case explicitImageVerb.MatchString(text),
		makeImageNoun.MatchString(text),
		showMe.MatchString(text),
		imageOf.MatchString(text):
		return ImageIntent
	}
	return Abstain
}

const (
	minImplicitWords = 2
	maxImplicitWords = 10
)

// Words that signal a sentence or an instruction rather than a description.
var nonDescriptiveWords = toSet(
	// pronouns
	"i", "i'm", "im", "me", "my", "mine", "you", "your", "you're", "we", "us", "our", "he", "she", "they", "them", "it's", "this", "that",
	// auxiliaries and common verbs
	"is", "are", "am", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did", "done",
	"can", "could", "should", "would", "will", "shall", "must", "may", "might",
	"need", "want", "think", "know", "mean", "say", "said", "sounds", "seems", "feel", "like", "let's", "lets",
	"write", "tell", "explain", "describe", "discuss", "analyze", "review", "list", "summarize", "translate", "help", "give", "fix", "calculate", "find", "check", "send", "use", "try",
	// negations
	"not", "don't", "dont", "can't", "cant", "won't", "no",
)

// Written artifacts; a phrase naming one asks for text, not a picture.
var textArtifactWords = toSet(
	"poem", "story", "essay", "email", "letter", "joke", "summary", "definition", "meaning", "recipe", "lyrics",
	"code", "script", "function", "error", "bug", "api", "sql", "python", "javascript", "golang", "regex", "example",
)

// A descriptive phrase must name at least one of these.
var visualCueWords = toSet(
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "black", "white", "golden", "silver", "neon",
	"watercolor", "oil", "pixel", "anime", "cartoon", "cyberpunk", "photorealistic", "realistic", "minimalist", "vintage", "isometric", "3d",
	"sunset", "sunrise", "landscape", "mountain", "mountains", "forest", "ocean", "beach", "city", "skyline", "lake", "sky", "galaxy",
	"snow", "rain", "moon", "stars", "river", "waterfall", "desert", "island", "meadow", "woods", "cabin", "lighthouse",
	"cat", "cats", "dog", "dogs", "dragon", "castle", "robot", "flower", "flowers", "garden", "tree", "trees", "bird", "horse",
	"fox", "lion", "tiger", "owl", "wolf", "whale", "puppy", "kitten",
)

// Words that may open a description. Any other first word reads as an
// imperative verb ("book a flight", "run the tests").
var descriptiveOpeners = toSet(
	"a", "an", "the", "some", "two", "three", "four", "five", "several", "many", "few", "lone", "single",
	"misty", "foggy", "snowy", "rainy", "sunny", "stormy", "cozy", "majestic", "ancient", "futuristic", "tiny", "giant",
	"little", "big", "old", "young", "abstract", "surreal", "dark", "bright", "colorful", "magical", "mystical", "serene",
	"quiet", "busy", "dreamy", "fluffy", "enchanted", "haunted", "retro", "epic", "beautiful", "cute",
)

// Conversational fillers that never start a description.
var conversationalOpeners = toSet(
	"hi", "hello", "hey", "yo", "thanks", "thank", "thx", "ok", "okay", "yes", "yeah", "yep", "nope", "sure",
	"bye", "goodbye", "cool", "great", "nice", "awesome", "lol", "hmm", "please", "sorry", "good", "welcome",
)

var wordPattern = regexp.MustCompile(`^[a-z][a-z'-]*$`)

// matchImplicitNounPhrase treats a short phrase made only of descriptive words
// ("a red fox in the snow, watercolor") as an image request. The phrase must
// open with a determiner or descriptive word and name something visual.
func matchImplicitNounPhrase(text string) Verdict {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == ':'
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".!\"()")
		if w == "" {
			continue
		}
		if !wordPattern.MatchString(w) {
			return Abstain
		}
		words = append(words, w)
	}

	if len(words) < minImplicitWords || len(words) > maxImplicitWords {
		return Abstain
	}
	if _, ok := conversationalOpeners[words[0]]; ok {
		return Abstain
	}
	_, opener := descriptiveOpeners[words[0]]
	_, visualOpener := visualCueWords[words[0]]
	if !opener && !visualOpener {
		return Abstain
	}
	visual := false
	for _, w := range words {
		if _, ok := nonDescriptiveWords[w]; ok {
			return Abstain
		}
		if _, ok := textArtifactWords[w]; ok {
			return Abstain
		}
		if _, ok := visualCueWords[w]; ok {
			visual = true
		}
	}
	if !visual {
		return Abstain
	}
	return ImageIntent
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
