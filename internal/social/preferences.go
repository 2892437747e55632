package social

// Settings holds the notification and privacy toggles.
type Settings struct {
	Notifications map[string]bool `json:"notifications"`
	Privacy       map[string]bool `json:"privacy"`
}

// DefaultSettings returns the settings used when none have been saved.
func DefaultSettings() Settings {
	return Settings{
		Notifications: map[string]bool{
			"email":         true,
			"push":          true,
			"postReminders": true,
			"weeklyReports": false,
		},
		Privacy: map[string]bool{
			"profileVisible":   true,
			"analyticsSharing": false,
		},
	}
}

// Set updates one toggle in the named section ("notifications" or
// "privacy"). It returns false for an unknown section.
func (s *Settings) Set(section, key string, value bool) bool {
	var m *map[string]bool
	switch section {
	case "notifications":
		m = &s.Notifications
	case "privacy":
		m = &s.Privacy
	default:
		return false
	}
	if *m == nil {
		*m = make(map[string]bool)
	}
	(*m)[key] = value
	return true
}

// Layout is the dashboard arrangement.
type Layout string

const (
	LayoutGrid    Layout = "grid"
	LayoutList    Layout = "list"
	LayoutCompact Layout = "compact"
)

func (l Layout) Valid() bool {
	return l == LayoutGrid || l == LayoutList || l == LayoutCompact
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Widget is one dashboard tile.
type Widget struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Visible  bool     `json:"visible"`
	Moveable bool     `json:"moveable"`
}

// DefaultWidgets returns the stock dashboard.
func DefaultWidgets() []Widget {
	return []Widget{
		{ID: "stats-overview", Title: "Performance Overview", Type: "stats", Position: Position{0, 0}, Size: Size{2, 1}, Visible: true, Moveable: true},
		{ID: "recent-posts", Title: "Recent Posts", Type: "posts", Position: Position{2, 0}, Size: Size{2, 2}, Visible: true, Moveable: true},
		{ID: "quick-actions", Title: "Quick Actions", Type: "actions", Position: Position{0, 1}, Size: Size{1, 1}, Visible: true, Moveable: true},
		{ID: "analytics-preview", Title: "Analytics Preview", Type: "analytics", Position: Position{1, 1}, Size: Size{1, 1}, Visible: true, Moveable: true},
		{ID: "calendar-preview", Title: "Upcoming Posts", Type: "calendar", Position: Position{0, 2}, Size: Size{2, 1}, Visible: true, Moveable: true},
		{ID: "platform-status", Title: "Platform Status", Type: "platforms", Position: Position{2, 2}, Size: Size{2, 1}, Visible: true, Moveable: true},
	}
}
