package models

import (
	"time"
)

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionContact  ActionKind = "contact"
	ActionInfo     ActionKind = "info"
)

// QuickAction is a one-tap shortcut offered next to an assistant reply.
type QuickAction struct {
	Label  string     `json:"label"`
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target"` // path, tel:/wa.me link, or info topic
}

// Message is one entry of a conversation. Immutable once appended.
type Message struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Origin       Origin        `json:"origin"`
	Timestamp    time.Time     `json:"timestamp"`
	QuickActions []QuickAction `json:"quick_actions,omitempty"`
	Suggestions  []string      `json:"suggestions,omitempty"`
}

// UserContext is what the assistant knows about the visitor's navigation.
type UserContext struct {
	CurrentPath    string          `json:"current_path"`
	Visited        map[string]bool `json:"visited"`
	RecentSearches []string        `json:"recent_searches"` // newest last, bounded
	Language       string          `json:"language"`
}

// Clone returns a deep copy safe to hand to a delayed reply.
func (c UserContext) Clone() UserContext {
	out := UserContext{
		CurrentPath:    c.CurrentPath,
		Language:       c.Language,
		Visited:        make(map[string]bool, len(c.Visited)),
		RecentSearches: append([]string(nil), c.RecentSearches...),
	}
	for k, v := range c.Visited {
		out.Visited[k] = v
	}
	return out
}

// Reminder is a recurring prompt to take a medication at a time of day.
type Reminder struct {
	ID             string     `json:"id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	Time           string     `json:"time"`      // "HH:MM"
	Frequency      string     `json:"frequency"` // descriptive only
	Active         bool       `json:"active"`
	LastTaken      *time.Time `json:"last_taken,omitempty"`
	NextDue        time.Time  `json:"next_due"`
	Instructions   string     `json:"instructions,omitempty"`
}

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationTaken   NotificationStatus = "taken"
	NotificationMissed  NotificationStatus = "missed"
	NotificationSnoozed NotificationStatus = "snoozed"
)

// ReminderNotification is a concrete instance of a reminder becoming due.
// Medication fields are a snapshot of the reminder at creation time.
type ReminderNotification struct {
	ID             string             `json:"id"`
	ReminderID     string             `json:"reminder_id"`
	MedicationName string             `json:"medication_name"`
	Dosage         string             `json:"dosage"`
	Time           string             `json:"time"`
	Instructions   string             `json:"instructions,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Status         NotificationStatus `json:"status"`
}

type UploadStatus string

const (
	UploadUploading  UploadStatus = "uploading"
	UploadValidating UploadStatus = "validating"
	UploadApproved   UploadStatus = "approved"
	UploadRejected   UploadStatus = "rejected"
)

// PrescriptionUpload is a staged prescription going through simulated review.
type PrescriptionUpload struct {
	ID             string       `json:"id"`
	FileName       string       `json:"file_name"`
	ContentType    string       `json:"content_type"`
	Size           int64        `json:"size"`
	FileRef        string       `json:"file_ref,omitempty"` // object storage key
	Preview        string       `json:"preview"`            // data URL or icon placeholder
	Status         UploadStatus `json:"status"`
	StatusLabel    string       `json:"status_label"`
	PharmacistNote string       `json:"pharmacist_note,omitempty"`
	UploadedAt     time.Time    `json:"uploaded_at"`
}

type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Product struct {
	ID          int    `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	Price       string `yaml:"price" json:"price"`
	InStock     bool   `yaml:"in_stock" json:"in_stock"`
}

// Window is an opening window in whole hours, inclusive on both ends.
type Window struct {
	Open  int `yaml:"open" json:"open"`
	Close int `yaml:"close" json:"close"`
}

type OpeningHours struct {
	Weekdays Window `yaml:"weekdays" json:"weekdays"` // Monday to Saturday
	Sunday   Window `yaml:"sunday" json:"sunday"`
}

type PharmacyInfo struct {
	Name     string       `yaml:"name" json:"name"`
	Phone    string       `yaml:"phone" json:"phone"`
	WhatsApp string       `yaml:"whatsapp" json:"whatsapp"`
	Email    string       `yaml:"email" json:"email"`
	Address  string       `yaml:"address" json:"address"`
	Hours    OpeningHours `yaml:"hours" json:"hours"`
}

type Page struct {
	Slug     string   `yaml:"slug" json:"slug"`
	Path     string   `yaml:"path" json:"path"`
	Title    string   `yaml:"title" json:"title"`
	Summary  string   `yaml:"summary" json:"summary"`
	Sections []string `yaml:"sections" json:"sections"`
}

type UserProfile struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name"`
	Email             string   `yaml:"email" json:"email"`
	Phone             string   `yaml:"phone" json:"phone"`
	Address           string   `yaml:"address" json:"address"`
	DateOfBirth       string   `yaml:"date_of_birth" json:"date_of_birth"`
	EmergencyContact  string   `yaml:"emergency_contact" json:"emergency_contact"`
	Allergies         []string `yaml:"allergies" json:"allergies"`
	ChronicConditions []string `yaml:"chronic_conditions" json:"chronic_conditions"`
	MemberSince       string   `yaml:"member_since" json:"member_since"`
	LoyaltyPoints     int      `yaml:"loyalty_points" json:"loyalty_points"`
	TotalOrders       int      `yaml:"total_orders" json:"total_orders"`
}

type HealthRecord struct {
	ID    string `yaml:"id" json:"id"`
	Type  string `yaml:"type" json:"type"` // tension | glycemie | poids | temperature
	Value string `yaml:"value" json:"value"`
	Date  string `yaml:"date" json:"date"`
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type Medication struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Dosage        string   `yaml:"dosage" json:"dosage"`
	Frequency     string   `yaml:"frequency" json:"frequency"`
	StartDate     string   `yaml:"start_date" json:"start_date"`
	ReminderTimes []string `yaml:"reminder_times" json:"reminder_times"`
	Taken         []bool   `yaml:"taken" json:"taken"`
}

type Order struct {
	ID     string   `yaml:"id" json:"id"`
	Date   string   `yaml:"date" json:"date"`
	Items  []string `yaml:"items" json:"items"`
	Total  int      `yaml:"total" json:"total"` // FCFA
	Status string   `yaml:"status" json:"status"`
}

type DashboardTab struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}
