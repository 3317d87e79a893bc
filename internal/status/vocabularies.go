package status

import "sort"

// Fixture buckets in lifecycle order.
const (
	FixtureScheduled          = "scheduled"
	FixturePredictionOpen     = "predictionOpen"
	FixturePredictionLocked   = "predictionLocked"
	FixtureLive               = "live"
	FixtureFullTimeProcessing = "fullTimeProcessing"
	FixtureCompleted          = "completed"
)

// Fixture is the fixture lifecycle. Transitions are driven by the backend;
// the admin only displays the current state and its step.
var Fixture = New("fixture", FixturePredictionOpen,
	Def{Bucket{FixtureScheduled, "Scheduled", ColorDefault}, []string{"draft", "created"}},
	Def{Bucket{FixturePredictionOpen, "Prediction Open", ColorInfo}, []string{"published", "open", "upcoming", "not_started"}},
	Def{Bucket{FixturePredictionLocked, "Prediction Locked", ColorWarning}, []string{"locked", "prediction_closed", "kickoff"}},
	Def{Bucket{FixtureLive, "Live", ColorError}, []string{"in_progress", "ongoing", "first_half", "half_time", "second_half"}},
	Def{Bucket{FixtureFullTimeProcessing, "Results Processing", ColorSecondary}, []string{"results_processing", "full_time", "processing"}},
	Def{Bucket{FixtureCompleted, "Completed", ColorSuccess}, []string{"full_time_completed", "finished", "ended", "settled"}},
)

// Notification is the broadcast notification lifecycle.
var Notification = New("notification", "draft",
	Def{Bucket{"draft", "Draft", ColorDefault}, nil},
	Def{Bucket{"scheduled", "Scheduled", ColorInfo}, []string{"queued", "pending"}},
	Def{Bucket{"sent", "Sent", ColorSuccess}, []string{"delivered", "published", "completed"}},
	Def{Bucket{"failed", "Failed", ColorError}, []string{"error", "cancelled"}},
)

// Poll is the poll lifecycle.
var Poll = New("poll", "active",
	Def{Bucket{"draft", "Draft", ColorDefault}, nil},
	Def{Bucket{"active", "Active", ColorSuccess}, []string{"open", "published", "live"}},
	Def{Bucket{"closed", "Closed", ColorWarning}, []string{"ended", "expired"}},
	Def{Bucket{"archived", "Archived", ColorSecondary}, nil},
)

// Prediction is the outcome of a single prediction.
var Prediction = New("prediction", "pending",
	Def{Bucket{"pending", "Pending", ColorInfo}, []string{"open", "submitted"}},
	Def{Bucket{"won", "Won", ColorSuccess}, []string{"correct", "win"}},
	Def{Bucket{"lost", "Lost", ColorError}, []string{"incorrect", "lose"}},
	Def{Bucket{"void", "Void", ColorSecondary}, []string{"cancelled", "refunded"}},
)

// Reward is the reward payout state as reported by the backend.
var Reward = New("reward", "pending",
	Def{Bucket{"pending", "Pending", ColorWarning}, []string{"requested"}},
	Def{Bucket{"approved", "Approved", ColorInfo}, nil},
	Def{Bucket{"paid", "Paid", ColorSuccess}, []string{"disbursed", "completed"}},
	Def{Bucket{"rejected", "Rejected", ColorError}, []string{"declined", "failed"}},
)

// Referral is the referral conversion state.
var Referral = New("referral", "pending",
	Def{Bucket{"pending", "Pending", ColorWarning}, nil},
	Def{Bucket{"completed", "Completed", ColorSuccess}, []string{"successful", "rewarded", "converted"}},
	Def{Bucket{"expired", "Expired", ColorDefault}, []string{"cancelled"}},
)

var registry = map[string]*Vocabulary{
	Fixture.Name():      Fixture,
	Notification.Name(): Notification,
	Poll.Name():         Poll,
	Prediction.Name():   Prediction,
	Reward.Name():       Reward,
	Referral.Name():     Referral,
}

// Lookup returns the vocabulary with the given name.
func Lookup(name string) (*Vocabulary, bool) {
	v, ok := registry[name]
	return v, ok
}

// Names returns the registered vocabulary names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
