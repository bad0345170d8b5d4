package activity

// Page sizes for GetRecentActivity.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListActivityOptions filters the activity log. Entries come back newest first.
type ListActivityOptions struct {
	RaceName     string
	SessionID    *string
	PlayerID     *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}

func (o ListActivityOptions) normalized() (ListActivityOptions, error) {
	if o.Offset < 0 || o.Limit < 0 {
		return o, ErrInvalidInput
	}
	if o.ActivityType != nil && !o.ActivityType.Known() {
		return o, ErrUnknownType
	}
	switch {
	case o.Limit == 0:
		o.Limit = DefaultLimit
	case o.Limit > MaxLimit:
		o.Limit = MaxLimit
	}
	return o, nil
}
