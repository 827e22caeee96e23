package tags

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	firstNames  = []string{"James", "John", "Robert", "Michael", "William", "David", "Richard", "Joseph", "Thomas", "Charles", "Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara", "Susan", "Jessica", "Sarah", "Karen"}
	lastNames   = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	streetNames = []string{"Main St", "Highland Ave", "Maple Ave", "Oak St", "Park Ave", "Pine St", "Elm St", "Washington St", "Lake St", "Hill St"}
	cities      = []string{"Miami", "Orlando", "Tampa", "Jacksonville", "St. Petersburg", "Hialeah", "Tallahassee", "Fort Lauderdale", "Port St. Lucie", "Cape Coral"}

	bodyTemplates = []string{
		"Dear #fullname#,\n\nAttached is the document you requested.\n\nPlease let us know if you have any questions.\n\nThank you.",
		"Hello #fullname#,\n\nYour document is ready for download.\n\nThank you for your patience.",
		"Hi #fullname#,\n\nWe have an important document for you. Please find it attached.\n\nSincerely,\nThe Team",
	}
)

var (
	reEmail    = regexp.MustCompile(`(?i)#email#`)
	reFullname = regexp.MustCompile(`(?i)#fullname#`)
	reNum      = regexp.MustCompile(`(?i)#num#`)
	reAddress  = regexp.MustCompile(`(?i)#address#`)
	reRanbody  = regexp.MustCompile(`(?i)#ranbody#`)
	reDate     = regexp.MustCompile(`(?i)#date#`)
	reTime     = regexp.MustCompile(`(?i)#time#`)

	reUnsafeName = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

// Tag describes one placeholder for the /tags listing.
type Tag struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

var Supported = []Tag{
	{"#email#", "Recipient email address"},
	{"#fullname#", "Random first and last name"},
	{"#num#", "Random 8-digit number"},
	{"#address#", "Random Florida street address"},
	{"#ranbody#", "Random body paragraph addressed to the recipient"},
	{"#date#", "Current UTC date (YYYY-MM-DD)"},
	{"#time#", "Current UTC time (HH:MM:SS)"},
}

// Renderer substitutes tags. Safe for concurrent use.
type Renderer struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewRenderer(seed int64, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{rnd: rand.New(rand.NewSource(seed)), now: now}
}

type identity struct {
	fullName string
	num      string
	address  string
	ranBody  string
}

func (r *Renderer) identity() identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := identity{
		fullName: firstNames[r.rnd.Intn(len(firstNames))] + " " + lastNames[r.rnd.Intn(len(lastNames))],
		num:      fmt.Sprintf("%d", 10000000+r.rnd.Intn(90000000)),
	}
	street := 100 + r.rnd.Intn(9900)
	zip := 32003 + r.rnd.Intn(34997-32003+1)
	id.address = fmt.Sprintf("%d %s, %s, FL %d",
		street, streetNames[r.rnd.Intn(len(streetNames))], cities[r.rnd.Intn(len(cities))], zip)
	id.ranBody = bodyTemplates[r.rnd.Intn(len(bodyTemplates))]
	return id
}

// Render replaces every supported tag in text for one recipient.
// All tags in one call share the same random identity.
func (r *Renderer) Render(text, email string) string {
	if text == "" {
		return ""
	}
	id := r.identity()

	out := reEmail.ReplaceAllLiteralString(text, email)
	out = reFullname.ReplaceAllLiteralString(out, id.fullName)
	out = reNum.ReplaceAllLiteralString(out, id.num)
	out = reAddress.ReplaceAllLiteralString(out, id.address)

	if reRanbody.MatchString(out) {
		body := strings.ReplaceAll(id.ranBody, "#fullname#", LocalPart(email))
		body = strings.ReplaceAll(body, "#email#", email)
		body = strings.ReplaceAll(body, "#address#", id.address)
		out = reRanbody.ReplaceAllLiteralString(out, body)
	}

	now := r.now().UTC()
	out = reDate.ReplaceAllLiteralString(out, now.Format("2006-01-02"))
	out = reTime.ReplaceAllLiteralString(out, now.Format("15:04:05"))
	return out
}

// Pick returns a random element of lines, or "" when empty.
func (r *Renderer) Pick(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lines[r.rnd.Intn(len(lines))]
}

// Between returns a uniform integer in [lo, hi].
func (r *Renderer) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rnd.Intn(hi-lo+1)
}

// RandomUID returns n random decimal digits.
func (r *Renderer) RandomUID(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + r.rnd.Intn(10))
	}
	return string(b)
}

// AttachmentFilename builds "<YYYYMMDD>-<campaign>-<local part><ext>".
func (r *Renderer) AttachmentFilename(campaign, email, original string) string {
	return fmt.Sprintf("%s-%s-%s%s",
		r.now().UTC().Format("20060102"),
		SanitizeName(campaign),
		LocalPart(email),
		filepath.Ext(original),
	)
}

func SanitizeName(s string) string {
	return reUnsafeName.ReplaceAllString(s, "_")
}

func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
