package todoist

// Due is the due date of a task as Todoist reports it.
type Due struct {
	Date        string `json:"date"`
	String      string `json:"string,omitempty"`
	Datetime    string `json:"datetime,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

// Task is an active or completed Todoist task.
type Task struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	ProjectID   string   `json:"project_id"`
	SectionID   string   `json:"section_id,omitempty"`
	Labels      []string `json:"labels"`
	Priority    int      `json:"priority"`
	Due         *Due     `json:"due,omitempty"`
	URL         string   `json:"url"`
	IsCompleted bool     `json:"is_completed"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// Project is a Todoist project.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsFavorite bool   `json:"is_favorite"`
	URL        string `json:"url"`
}

// Label is a personal label.
type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Order      int    `json:"order"`
	IsFavorite bool   `json:"is_favorite"`
}

// Section groups tasks inside a project.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID       string `json:"id"`
	TaskID   string `json:"task_id"`
	Content  string `json:"content"`
	PostedAt string `json:"posted_at"`
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// TaskUpdate carries the fields to change. Nil fields are left untouched.
type TaskUpdate struct {
	Content     *string  `json:"content,omitempty"`
	Description *string  `json:"description,omitempty"`
	DueString   *string  `json:"due_string,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Content == nil && u.Description == nil && u.DueString == nil && u.Priority == nil && u.Labels == nil
}

// TaskFilter narrows GetTasks.
type TaskFilter struct {
	ProjectID string
	Label     string
	Filter    string
}
