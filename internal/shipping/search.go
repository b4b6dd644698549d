// Package shipping implements the shipping-schedule search: port catalogs,
// search validation, fare-ordered recommendation results, and per-result
// operator tagging and feedback.
package shipping

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
	"go.uber.org/zap"
)

var commonDestinations = []string{
	"Shanghai", "Singapore", "Los Angeles", "Rotterdam", "Hamburg",
	"Dubai", "New York", "Hong Kong", "Busan", "Sydney",
}

// departureDestinations maps each supported departure port to the
// destinations it serves.
var departureDestinations = map[string][]string{
	"Kobe":     commonDestinations,
	"Osaka":    commonDestinations,
	"Yokohama": commonDestinations,
	"Tokyo":    commonDestinations,
}

var departureOrder = []string{"Kobe", "Osaka", "Yokohama", "Tokyo"}

// carrierLoginURLs points each carrier at its booking login page
var carrierLoginURLs = map[string]string{
	"NYK":       "https://www.nyk.com/",
	"ONE":       "https://jp.one-line.com/ja/user/login",
	"MAERSK":    "https://accounts.maersk.com/ocean-maeu/auth/login",
	"MSC":       "https://www.msc.com/ja/ebusiness",
	"CMA CGM":   "https://www.cma-cgm.com/",
	"COSCO":     "https://world.lines.coscoshipping.com/japan/jp/home",
	"EVERGREEN": "https://www.shipmentlink.com/jp/",
}

var toyoshingoURLs = map[string]string{
	"NYK":       "https://toyoshingo.com/nyk/",
	"ONE":       "https://toyoshingo.com/one/",
	"MAERSK":    "https://toyoshingo.com/maersk/",
	"MSC":       "https://toyoshingo.com/msc/",
	"CMA CGM":   "https://toyoshingo.com/cmacgm/",
	"COSCO":     "https://toyoshingo.com/cosco/",
	"EVERGREEN": "https://toyoshingo.com/evergreen/",
}

// ErrDateRequired rejects a search with neither ETD nor ETA
var ErrDateRequired = errors.New("ETDまたはETAのいずれかを入力してください。")

// failureMessages maps the recommendation endpoint's failure reasons to
// operator messages.
var failureMessages = map[string]string{
	"no_schedule_for_destination": "この目的地へのスケジュールは現在ありません。",
	"no_schedule":                 "該当するスケジュールが存在しません。",
	"pdf_not_found":               "PDFスケジュールファイルが見つかりませんでした。",
}

const genericFailureMessage = "スケジュール取得に失敗しました。"

// FailureMessage resolves a failure body to an operator message. A server
// supplied message wins over the reason mapping.
func FailureMessage(f *apiclient.ShippingFailure) string {
	if f == nil {
		return ""
	}
	if f.Error != "" {
		return f.Error
	}
	if msg, ok := failureMessages[f.Reason]; ok {
		return msg
	}
	return genericFailureMessage
}

// DeparturePorts lists the supported departure ports in display order
func DeparturePorts() []string {
	ports := make([]string, len(departureOrder))
	copy(ports, departureOrder)
	return ports
}

// DestinationsFor lists the destinations served from a departure port.
// Unknown ports get an empty list, which disables the destination picker.
func DestinationsFor(departure string) []string {
	dests, ok := departureDestinations[departure]
	if !ok {
		return nil
	}
	out := make([]string, len(dests))
	copy(out, dests)
	return out
}

// CarrierLoginURL returns the carrier's login page, or false when the
// carrier has no registered URL.
func CarrierLoginURL(company string) (string, bool) {
	url, ok := carrierLoginURLs[company]
	return url, ok
}

// ToyoshingoURL returns the carrier's toyoshingo schedule page
func ToyoshingoURL(company string) (string, bool) {
	url, ok := toyoshingoURLs[company]
	return url, ok
}

// Query is one schedule search. ETD and ETA are mutually exclusive; picking
// one clears the other, and at least one is required.
type Query struct {
	Departure   string
	Destination string
	ETD         string
	ETA         string
}

// Validate checks the query before it goes to the wire
func (q Query) Validate() error {
	if q.ETD == "" && q.ETA == "" {
		return ErrDateRequired
	}
	return nil
}

// Service runs schedule searches and tracks result tags and feedback for
// the latest search.
type Service struct {
	mu       sync.Mutex
	results  []models.ScheduleResult
	feedback map[int]string

	api    *apiclient.Client
	logger *zap.Logger
}

// NewService creates a shipping search service
func NewService(api *apiclient.Client, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Search fetches recommendations for a query. Results come back sorted by
// fare ascending; a result with an unparseable or missing fare sorts last.
// A recognized failure is returned as an operator message with no error.
func (s *Service) Search(ctx context.Context, q Query) ([]models.ScheduleResult, string, error) {
	if err := q.Validate(); err != nil {
		return nil, err.Error(), nil
	}

	req := apiclient.ShippingRequest{
		DeparturePort:   q.Departure,
		DestinationPort: q.Destination,
	}
	if q.ETD != "" {
		req.ETDDate = &q.ETD
	}
	if q.ETA != "" {
		req.ETADate = &q.ETA
	}

	results, failure, err := s.api.RecommendShipping(ctx, req)
	if err != nil {
		s.logger.Warn("Schedule search failed",
			zap.String("departure", q.Departure),
			zap.String("destination", q.Destination),
			zap.Error(err))
		return nil, "", err
	}
	if failure != nil {
		s.setResults(nil)
		return nil, FailureMessage(failure), nil
	}

	for i := range results {
		results[i].Status = models.ScheduleTagNone
	}
	sortByFare(results)
	s.setResults(results)
	return results, "", nil
}

func (s *Service) setResults(results []models.ScheduleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.feedback = make(map[int]string)
}

func sortByFare(results []models.ScheduleResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return fareValue(results[i].Fare) < fareValue(results[j].Fare)
	})
}

func fareValue(fare string) float64 {
	v, err := strconv.ParseFloat(fare, 64)
	if err != nil {
		return float64(1<<62) * 2 // past any real fare
	}
	return v
}

// ToggleTag flips a result's operator tag. Applying the tag the result
// already carries clears it back to untagged.
func (s *Service) ToggleTag(index int, tag string) ([]models.ScheduleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.results) {
		return nil, errors.New("schedule result does not exist")
	}
	if s.results[index].Status == tag {
		s.results[index].Status = models.ScheduleTagNone
	} else {
		s.results[index].Status = tag
	}

	out := make([]models.ScheduleResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

// TagClass maps a result tag to its card highlight class
func TagClass(tag string) string {
	switch tag {
	case models.ScheduleTagDone:
		return "bg-blue-100"
	case models.ScheduleTagProcessing:
		return "bg-pink-100"
	case models.ScheduleTagExclude:
		return "bg-gray-200"
	default:
		return "bg-white"
	}
}

// SendFeedback records a yes/no judgement on one result and forwards it to
// the server. Repeat feedback on the same result is ignored.
func (s *Service) SendFeedback(ctx context.Context, index int, value string) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.results) {
		s.mu.Unlock()
		return errors.New("schedule result does not exist")
	}
	if _, sent := s.feedback[index]; sent {
		s.mu.Unlock()
		return nil
	}
	result := s.results[index]
	s.mu.Unlock()

	err := s.api.SendScheduleFeedback(ctx, apiclient.ScheduleFeedback{
		URL:      result.ScheduleURL,
		ETD:      result.ETD,
		ETA:      result.ETA,
		Feedback: value,
	})
	if err != nil {
		s.logger.Warn("Feedback send failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.feedback[index] = value
	s.mu.Unlock()
	return nil
}
