package folio

// Service is the orchestration layer for versioning: it bootstraps projects
// and branches, captures snapshots, restores them and moves branch pointers.
//
// Every method runs synchronously and mutates shared project state in place.
// Callers must not run two operations against the same project concurrently.
type Service struct {
	database  Database
	paginator Paginator
	renderer  PreviewRenderer
	notifier  Notifier
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a new Service with the provided dependencies.
// renderer may be nil, in which case snapshots are created without previews.
// A nil paginator counts every document as one page; a nil notifier drops
// restore notifications.
func NewService(database Database, paginator Paginator, renderer PreviewRenderer, notifier Notifier, logger Logger, clock Clock, idgen IDGenerator) *Service {
	if paginator == nil {
		paginator = onePagePaginator{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Service{
		database:  database,
		paginator: paginator,
		renderer:  renderer,
		notifier:  notifier,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}
