package microsoft

// Wire shapes for the Graph events API, limited to the fields the engine
// reads and writes.

type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type Location struct {
	DisplayName string `json:"displayName"`
}

type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type ResponseStatus struct {
	Response string `json:"response,omitempty"`
}

type Attendee struct {
	EmailAddress EmailAddress    `json:"emailAddress"`
	Type         string          `json:"type,omitempty"`
	Status       *ResponseStatus `json:"status,omitempty"`
}

type RecurrencePattern struct {
	Type           string   `json:"type"`
	Interval       int      `json:"interval"`
	DaysOfWeek     []string `json:"daysOfWeek,omitempty"`
	DayOfMonth     int      `json:"dayOfMonth,omitempty"`
	Month          int      `json:"month,omitempty"`
	FirstDayOfWeek string   `json:"firstDayOfWeek,omitempty"`
}

type RecurrenceRange struct {
	Type                string `json:"type"`
	StartDate           string `json:"startDate,omitempty"`
	EndDate             string `json:"endDate,omitempty"`
	NumberOfOccurrences int    `json:"numberOfOccurrences,omitempty"`
}

type PatternedRecurrence struct {
	Pattern RecurrencePattern `json:"pattern"`
	Range   RecurrenceRange   `json:"range"`
}

type Event struct {
	ID          string               `json:"id,omitempty"`
	Subject     string               `json:"subject"`
	Body        *ItemBody            `json:"body,omitempty"`
	Location    *Location            `json:"location,omitempty"`
	IsAllDay    bool                 `json:"isAllDay"`
	IsCancelled bool                 `json:"isCancelled,omitempty"`
	Start       *DateTimeTimeZone    `json:"start,omitempty"`
	End         *DateTimeTimeZone    `json:"end,omitempty"`
	Attendees   []Attendee           `json:"attendees,omitempty"`
	Recurrence  *PatternedRecurrence `json:"recurrence,omitempty"`
	Categories  []string             `json:"categories,omitempty"`
}

type eventList struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink,omitempty"`
}
