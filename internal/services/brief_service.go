package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/kvstore"
	"github.com/safi-group/api/internal/platform/ratelimit"
	"github.com/safi-group/api/internal/platform/whatsapp"
)

const (
	briefKeyPrefix = "safi_brief_wizard:"
	// Saved wizard progress older than this is discarded, never restored.
	briefFreshness = 7 * 24 * time.Hour

	briefFieldType     = "type"
	briefFieldBudget   = "budget"
	briefFieldTimeline = "timeline"
	briefFieldName     = "name"
	briefFieldCompany  = "company"
	briefFieldWhatsApp = "whatsapp"

	maxBriefMatches = 3
)

var (
	// ErrBriefStoreMissing indicates the persistence dependency is absent.
	ErrBriefStoreMissing = errors.New("brief service: store is not configured")
	// ErrBriefInvalidInput indicates the caller supplied invalid data.
	ErrBriefInvalidInput = errors.New("brief service: invalid input")
	// ErrBriefIncomplete indicates submission was attempted before every step validated.
	ErrBriefIncomplete = errors.New("brief service: brief incomplete")
)

var briefPhonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

var briefPhoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Step error strings shown to the visitor, matching the site's Arabic copy.
var briefStepErrors = map[int]string{
	1: "اختر نوع المشروع.",
	2: "اختر الميزانية.",
	3: "اختر الجدول الزمني.",
	4: "يرجى تصحيح الأخطاء في الحقول",
}

var briefFieldErrors = map[string]string{
	briefFieldName:     "الاسم يجب أن يكون حرفين على الأقل",
	briefFieldCompany:  "اسم الشركة يجب أن يكون حرفين على الأقل",
	briefFieldWhatsApp: "رقم واتساب مطلوب",
}

const briefPhoneFormatError = "صيغة غير صحيحة. مثال: +966501234567"

var briefStepNames = [domain.BriefStepCount]string{"type", "budget", "timeline", "contact", "confirmation"}

// BriefServiceDeps wires the storage, catalog and messaging dependencies for
// the lead wizard.
type BriefServiceDeps struct {
	Store         kvstore.Store
	Catalog       CatalogService
	Limiter       *ratelimit.Limiter
	Events        EventRecorder
	Clock         func() time.Time
	BusinessPhone string
	BrandName     string
	// Freshness bounds how long saved progress can be resumed. Zero keeps
	// the seven-day default.
	Freshness time.Duration
}

type briefSession struct {
	state       domain.BriefState
	touched     map[string]bool
	fieldErrors map[string]string
	stepError   string
	resume      bool
}

type briefService struct {
	store     kvstore.Store
	catalog   CatalogService
	limiter   *ratelimit.Limiter
	events    EventRecorder
	clock     func() time.Time
	phone     string
	brand     string
	freshness time.Duration

	mu       sync.Mutex
	sessions map[string]*briefSession
}

// NewBriefService constructs the wizard state machine.
func NewBriefService(deps BriefServiceDeps) (BriefService, error) {
	if deps.Store == nil {
		return nil, ErrBriefStoreMissing
	}
	if strings.TrimSpace(deps.BusinessPhone) == "" {
		return nil, fmt.Errorf("brief service: business phone is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	events := deps.Events
	if events == nil {
		events = NopRecorder{}
	}
	freshness := deps.Freshness
	if freshness <= 0 {
		freshness = briefFreshness
	}
	return &briefService{
		store:     deps.Store,
		catalog:   deps.Catalog,
		limiter:   deps.Limiter,
		events:    events,
		clock:     func() time.Time { return clock().UTC() },
		phone:     strings.TrimSpace(deps.BusinessPhone),
		brand:     strings.TrimSpace(deps.BrandName),
		freshness: freshness,
		sessions:  make(map[string]*briefSession),
	}, nil
}

// Options returns the selectable answers for the first three steps.
func (s *briefService) Options() (types, budgets, timelines []BriefOption) {
	types = []BriefOption{
		{Value: "Design", Label: "Design", Description: "هوية / UI / حملات"},
		{Value: "Events", Label: "Events", Description: "مؤتمرات / فعاليات"},
		{Value: "Ads", Label: "Ads", Description: "إعلانات / محتوى"},
	}
	budgets = []BriefOption{
		{Value: "< 5k SAR", Label: "< 5k SAR"},
		{Value: "5k – 15k SAR", Label: "5k – 15k SAR"},
		{Value: "15k – 50k SAR", Label: "15k – 50k SAR"},
		{Value: "50k+ SAR", Label: "50k+ SAR"},
	}
	timelines = []BriefOption{
		{Value: "Urgent (1–2 weeks)", Label: "عاجل", Description: "1–2 أسبوع"},
		{Value: "1 month", Label: "متوسط", Description: "شهر"},
		{Value: "2–3 months", Label: "موسع", Description: "2–3 أشهر"},
	}
	return types, budgets, timelines
}

func (s *briefService) State(ctx context.Context, sessionID string) (BriefView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefView{}, ErrBriefInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(ctx, sessionID)
	return s.viewLocked(ctx, sess), nil
}

func (s *briefService) SetAnswer(ctx context.Context, sessionID, field, value string) (BriefView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefView{}, ErrBriefInvalidInput
	}
	field = strings.ToLower(strings.TrimSpace(field))

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(ctx, sessionID)

	switch field {
	case briefFieldType:
		sess.state.Form.ProjectType = strings.TrimSpace(value)
	case briefFieldBudget:
		sess.state.Form.Budget = strings.TrimSpace(value)
	case briefFieldTimeline:
		sess.state.Form.Timeline = strings.TrimSpace(value)
	case briefFieldName:
		sess.state.Form.Name = value
		validateBriefField(sess, briefFieldName)
	case briefFieldCompany:
		sess.state.Form.Company = value
		validateBriefField(sess, briefFieldCompany)
	case briefFieldWhatsApp:
		sess.state.Form.WhatsApp = value
		validateBriefField(sess, briefFieldWhatsApp)
	default:
		return BriefView{}, fmt.Errorf("%w: unknown field %q", ErrBriefInvalidInput, field)
	}

	return s.viewLocked(ctx, sess), nil
}

func (s *briefService) Advance(ctx context.Context, sessionID string) (BriefView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefView{}, ErrBriefInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(ctx, sessionID)

	if msg := s.validateStepLocked(sess); msg != "" {
		sess.stepError = msg
		return s.viewLocked(ctx, sess), nil
	}
	sess.stepError = ""

	completed := sess.state.Step
	s.events.Record(ctx, Event{
		Name:       "wizard_step_completed",
		OccurredAt: s.clock(),
		Metadata: map[string]any{
			"step":     completed,
			"stepName": briefStepNames[completed-1],
		},
	})

	if sess.state.Step < domain.BriefStepCount {
		sess.state.Step++
	}
	s.persistLocked(ctx, sessionID, sess)
	return s.viewLocked(ctx, sess), nil
}

func (s *briefService) Retreat(ctx context.Context, sessionID string) (BriefView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefView{}, ErrBriefInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(ctx, sessionID)

	sess.stepError = ""
	if sess.state.Step > 1 {
		sess.state.Step--
	}
	s.persistLocked(ctx, sessionID, sess)
	return s.viewLocked(ctx, sess), nil
}

func (s *briefService) Reset(ctx context.Context, sessionID string) (BriefView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefView{}, ErrBriefInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newBriefSession()
	s.sessions[sessionID] = sess
	s.store.Delete(ctx, briefKeyPrefix+sessionID)
	return s.viewLocked(ctx, sess), nil
}

func (s *briefService) Submit(ctx context.Context, sessionID string) (BriefSubmission, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return BriefSubmission{}, ErrBriefInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionLocked(ctx, sessionID)

	if !briefComplete(sess) {
		return BriefSubmission{}, ErrBriefIncomplete
	}

	if s.limiter != nil {
		if decision := s.limiter.Allow(sessionID); !decision.Allowed {
			return BriefSubmission{}, &RateLimitedError{RetryAfter: decision.RetryAfter}
		}
	}

	message := buildBriefMessage(s.brand, sess.state.Form)
	link, err := whatsapp.BuildURL(s.phone, message)
	if err != nil {
		return BriefSubmission{}, fmt.Errorf("brief service: %w", err)
	}

	s.events.Record(ctx, Event{
		Name:       "brief_submitted",
		OccurredAt: s.clock(),
		Metadata: map[string]any{
			"type":       sess.state.Form.ProjectType,
			"budget":     sess.state.Form.Budget,
			"timeline":   sess.state.Form.Timeline,
			"hasCompany": strings.TrimSpace(sess.state.Form.Company) != "",
		},
	})

	// The handoff is complete: drop the saved progress and return the
	// session to a fresh step-1 state.
	s.store.Delete(ctx, briefKeyPrefix+sessionID)
	s.sessions[sessionID] = newBriefSession()

	return BriefSubmission{Link: link, Message: message}, nil
}

func newBriefSession() *briefSession {
	return &briefSession{
		state:       domain.BriefState{Step: 1},
		touched:     make(map[string]bool),
		fieldErrors: make(map[string]string),
	}
}

// sessionLocked returns the in-memory session, restoring persisted progress
// within the freshness window on first access. Touched and error flags are
// always session-local and never restored.
func (s *briefService) sessionLocked(ctx context.Context, sessionID string) *briefSession {
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}

	sess := newBriefSession()
	resumed := false
	if blob, ok := s.store.Get(ctx, briefKeyPrefix+sessionID); ok {
		if kvstore.Fresh(blob, s.clock(), s.freshness) {
			var saved domain.BriefState
			if err := json.Unmarshal(blob.Data, &saved); err == nil && saved.Step >= 1 && saved.Step <= domain.BriefStepCount {
				sess.state = saved
				sess.resume = true
				resumed = true
			}
		} else {
			s.store.Delete(ctx, briefKeyPrefix+sessionID)
		}
	}

	s.events.Record(ctx, Event{
		Name:       "wizard_started",
		OccurredAt: s.clock(),
		Metadata:   map[string]any{"resumed": resumed, "step": sess.state.Step},
	})

	s.sessions[sessionID] = sess
	return sess
}

func (s *briefService) persistLocked(ctx context.Context, sessionID string, sess *briefSession) {
	now := s.clock()
	sess.state.SavedAt = now
	data, err := json.Marshal(sess.state)
	if err != nil {
		return
	}
	// Fail-soft: a failed write leaves the in-memory session authoritative.
	s.store.Set(ctx, briefKeyPrefix+sessionID, kvstore.Blob{Data: data, SavedAt: now})
}

func (s *briefService) validateStepLocked(sess *briefSession) string {
	form := sess.state.Form
	switch sess.state.Step {
	case 1:
		if strings.TrimSpace(form.ProjectType) == "" {
			return briefStepErrors[1]
		}
	case 2:
		if strings.TrimSpace(form.Budget) == "" {
			return briefStepErrors[2]
		}
	case 3:
		if strings.TrimSpace(form.Timeline) == "" {
			return briefStepErrors[3]
		}
	case 4:
		nameOK := validateBriefField(sess, briefFieldName)
		companyOK := validateBriefField(sess, briefFieldCompany)
		phoneOK := validateBriefField(sess, briefFieldWhatsApp)
		if !nameOK || !companyOK || !phoneOK {
			return briefStepErrors[4]
		}
	}
	return ""
}

// validateBriefField marks the field touched and records its error string,
// reporting validity.
func validateBriefField(sess *briefSession, field string) bool {
	sess.touched[field] = true
	form := sess.state.Form

	switch field {
	case briefFieldName:
		if len([]rune(strings.TrimSpace(form.Name))) < 2 {
			sess.fieldErrors[field] = briefFieldErrors[field]
			return false
		}
	case briefFieldCompany:
		if len([]rune(strings.TrimSpace(form.Company))) < 2 {
			sess.fieldErrors[field] = briefFieldErrors[field]
			return false
		}
	case briefFieldWhatsApp:
		phone := strings.TrimSpace(form.WhatsApp)
		if phone == "" {
			sess.fieldErrors[field] = briefFieldErrors[field]
			return false
		}
		if !briefPhonePattern.MatchString(briefPhoneStrip.Replace(phone)) {
			sess.fieldErrors[field] = briefPhoneFormatError
			return false
		}
	}
	sess.fieldErrors[field] = ""
	return true
}

func briefComplete(sess *briefSession) bool {
	form := sess.state.Form
	if strings.TrimSpace(form.ProjectType) == "" ||
		strings.TrimSpace(form.Budget) == "" ||
		strings.TrimSpace(form.Timeline) == "" {
		return false
	}
	return validateBriefField(sess, briefFieldName) &&
		validateBriefField(sess, briefFieldCompany) &&
		validateBriefField(sess, briefFieldWhatsApp)
}

func (s *briefService) viewLocked(ctx context.Context, sess *briefSession) BriefView {
	touched := make(map[string]bool, len(sess.touched))
	for k, v := range sess.touched {
		touched[k] = v
	}
	fieldErrors := make(map[string]string, len(sess.fieldErrors))
	for k, v := range sess.fieldErrors {
		if v != "" {
			fieldErrors[k] = v
		}
	}

	view := BriefView{
		Step:            sess.state.Step,
		Form:            sess.state.Form,
		StepError:       sess.stepError,
		FieldErrors:     fieldErrors,
		Touched:         touched,
		ResumeAvailable: sess.resume,
		Message:         buildBriefMessage(s.brand, sess.state.Form),
	}
	if sess.state.Step == domain.BriefStepCount {
		view.Matches = s.portfolioMatches(ctx, sess.state.Form.ProjectType)
	}
	return view
}

// portfolioMatches suggests showcase items whose category or tags line up
// with the chosen project type.
func (s *briefService) portfolioMatches(ctx context.Context, projectType string) []domain.PortfolioItem {
	projectType = strings.TrimSpace(projectType)
	if s.catalog == nil || projectType == "" {
		return nil
	}
	items, err := s.catalog.Portfolio(ctx)
	if err != nil {
		return nil
	}

	var matches []domain.PortfolioItem
	for _, item := range items {
		if len(matches) >= maxBriefMatches {
			break
		}
		if strings.EqualFold(item.Category, projectType) {
			matches = append(matches, item)
			continue
		}
		for _, tag := range item.Tags {
			if strings.EqualFold(tag, projectType) {
				matches = append(matches, item)
				break
			}
		}
	}
	return matches
}

func buildBriefMessage(brand string, form domain.BriefForm) string {
	placeholder := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "—"
		}
		return strings.TrimSpace(value)
	}
	lines := []string{
		fmt.Sprintf("%s — New Brief", brand),
		"-----------------------",
		fmt.Sprintf("Type: %s", placeholder(form.ProjectType)),
		fmt.Sprintf("Budget: %s", placeholder(form.Budget)),
		fmt.Sprintf("Timeline: %s", placeholder(form.Timeline)),
		"",
		fmt.Sprintf("Name: %s", placeholder(form.Name)),
		fmt.Sprintf("Company: %s", placeholder(form.Company)),
		fmt.Sprintf("Client WhatsApp: %s", placeholder(form.WhatsApp)),
		"",
		"Notes:",
		"- Please share any references/links if available.",
	}
	return strings.Join(lines, "\n")
}
