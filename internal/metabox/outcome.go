package metabox

// Outcome — результат Persist. Все исходы, кроме Saved, — тихий отказ.
type Outcome int

const (
	Saved Outcome = iota
	RejectedMissingToken
	RejectedInvalidToken
	RejectedAutosave
	RejectedWrongType
	RejectedForbidden
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case RejectedMissingToken:
		return "rejected_missing_token"
	case RejectedInvalidToken:
		return "rejected_invalid_token"
	case RejectedAutosave:
		return "rejected_autosave"
	case RejectedWrongType:
		return "rejected_wrong_type"
	case RejectedForbidden:
		return "rejected_forbidden"
	default:
		return "unknown"
	}
}

// IsSaved сообщает, были ли данные записаны.
func (o Outcome) IsSaved() bool {
	return o == Saved
}
