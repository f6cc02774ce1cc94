package domain

// Role — роль пользователя админки.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleAuthor        Role = "author"
	RoleContributor   Role = "contributor"
)

// Actor — текущий пользователь запроса.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsZero() bool {
	return a.UserID == ""
}

// ToRole проверяет строку на допустимую роль.
func ToRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdministrator, RoleEditor, RoleAuthor, RoleContributor:
		return Role(s), true
	default:
		return "", false
	}
}

// CanEditPost — аналог capability edit_post: администратор и редактор
// правят любые записи, автор — только свои, участник — только свои черновики.
func (a Actor) CanEditPost(e Event) bool {
	if a.IsZero() {
		return false
	}
	switch a.Role {
	case RoleAdministrator, RoleEditor:
		return true
	case RoleAuthor:
		return e.Author == a.UserID
	case RoleContributor:
		return e.Author == a.UserID && e.Status == PostStatusDraft
	default:
		return false
	}
}

// CanManageTerms — право создавать термины таксономии.
func (a Actor) CanManageTerms() bool {
	return a.Role == RoleAdministrator || a.Role == RoleEditor
}

// CanPublish — право публиковать записи. Участник сохраняет только черновики.
func (a Actor) CanPublish() bool {
	switch a.Role {
	case RoleAdministrator, RoleEditor, RoleAuthor:
		return true
	default:
		return false
	}
}

// CanUnfilteredHTML — право сохранять разметку записи без очистки.
func (a Actor) CanUnfilteredHTML() bool {
	return a.Role == RoleAdministrator || a.Role == RoleEditor
}
