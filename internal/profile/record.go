package profile

// Status is the classification label of a profile
type Status string

const (
	StatusGenuine Status = "Genuine"
	StatusFake    Status = "Fake"
)

// Signals are the engagement features extracted from a profile page
type Signals struct {
	Followers     int64
	Following     int64
	Subscriptions int64
	Verified      bool
}

// Labeler maps signals to a status. Implementations must be pure.
type Labeler interface {
	Label(Signals) Status
}

// ProfileRecord is one extraction result. It cannot be modified after NewRecord.
type ProfileRecord struct {
	username string
	signals  Signals
	status   Status
}

// NewRecord builds a record whose status is computed from signals by labeler
func NewRecord(username string, signals Signals, labeler Labeler) ProfileRecord {
	return ProfileRecord{
		username: username,
		signals:  signals,
		status:   labeler.Label(signals),
	}
}

func (r ProfileRecord) Username() string { return r.username }
func (r ProfileRecord) Signals() Signals { return r.signals }
func (r ProfileRecord) FollowersCount() int64 { return r.signals.Followers }
func (r ProfileRecord) FollowingCount() int64 { return r.signals.Following }
func (r ProfileRecord) SubscriptionsCount() int64 { return r.signals.Subscriptions }
func (r ProfileRecord) IsVerified() bool { return r.signals.Verified }
func (r ProfileRecord) Status() Status { return r.status }

// IsZero reports whether r was never built by NewRecord
func (r ProfileRecord) IsZero() bool {
	return r.username == "" && r.status == ""
}
