package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"safeway/internal/models"
	"safeway/internal/sms"
)

const defaultAlertMessage = "EMERGENCY! I need help."

// AlertSender is the slice of the SMS sender the handler needs.
type AlertSender interface {
	SendBulk(ctx context.Context, numbers []string, body string) []sms.Result
}

type SOSHandler struct {
	db     *sqlx.DB
	sender AlertSender
	logger *zap.Logger
}

func NewSOSHandler(db *sqlx.DB, sender AlertSender, logger *zap.Logger) *SOSHandler {
	return &SOSHandler{db: db, sender: sender, logger: logger}
}

// Contacts lists the caller's emergency contacts, newest first.
func (h *SOSHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	contacts := []models.EmergencyContact{}
	err := h.db.Select(&contacts,
		`SELECT id, user_id, name, phone, relation, created_at FROM emergency_contacts WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		h.logger.Error("contacts list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch emergency contacts")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": contacts, "count": len(contacts)})
}

type contactRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,inmobile"`
	Relation string `json:"relation" validate:"omitempty,max=50"`
}

// AddContact stores an emergency contact for the caller.
func (h *SOSHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var relation *string
	if req.Relation != "" {
		relation = &req.Relation
	}

	var contact models.EmergencyContact
	err := h.db.QueryRowx(
		`INSERT INTO emergency_contacts (user_id, name, phone, relation)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, name, phone, relation, created_at`,
		userID, req.Name, req.Phone, relation).StructScan(&contact)
	if err != nil {
		h.logger.Error("contact insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to add emergency contact")
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{"data": contact, "message": "Emergency contact added successfully"})
}

// DeleteContact removes a contact owned by the caller.
func (h *SOSHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contact id")
		return
	}

	var ownerID int
	if err := h.db.Get(&ownerID, `SELECT user_id FROM emergency_contacts WHERE id=$1`, id); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "Contact not found")
			return
		}
		h.logger.Error("contact lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}
	if ownerID != userIDFrom(r) {
		respondError(w, http.StatusForbidden, "Not authorized to delete this contact")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM emergency_contacts WHERE id=$1`, id); err != nil {
		h.logger.Error("contact delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"message": "Emergency contact deleted successfully"})
}

type alertRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Message   string   `json:"message" validate:"omitempty,max=500"`
}

// TriggerAlert sends the SOS message to every emergency contact and
// records the outcome. A failure for one contact does not fail the
// others; the alert status is "sent" when at least one succeeded.
func (h *SOSHandler) TriggerAlert(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	contacts := []models.EmergencyContact{}
	err := h.db.Select(&contacts,
		`SELECT id, user_id, name, phone, relation, created_at FROM emergency_contacts WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		h.logger.Error("contacts load failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to trigger SOS alert")
		return
	}
	if len(contacts) == 0 {
		respondError(w, http.StatusBadRequest, "No emergency contacts found. Please add contacts first.")
		return
	}

	lat, lon := *req.Latitude, *req.Longitude
	alertText := req.Message
	if alertText == "" {
		alertText = defaultAlertMessage
	}
	locationLink := fmt.Sprintf("https://www.google.com/maps?q=%v,%v", lat, lon)
	fullMessage := fmt.Sprintf("%s\nMy location: %v, %v\n%s", alertText, lat, lon, locationLink)

	numbers := make([]string, len(contacts))
	for i, c := range contacts {
		numbers[i] = c.Phone
	}

	results := h.sender.SendBulk(r.Context(), numbers, fullMessage)

	var sentTo []string
	for _, res := range results {
		if res.Success {
			sentTo = append(sentTo, res.To)
		}
	}

	status := "failed"
	if len(sentTo) > 0 {
		status = "sent"
	}

	var alert models.SOSAlert
	err = h.db.QueryRowx(
		`INSERT INTO sos_alerts (user_id, latitude, longitude, message, sent_to, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, latitude, longitude, message, sent_to, status, created_at`,
		userID, lat, lon, fullMessage, strings.Join(sentTo, ","), status).StructScan(&alert)
	if err != nil {
		h.logger.Error("alert insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to trigger SOS alert")
		return
	}

	h.logger.Info("sos alert triggered",
		zap.Int("user_id", userID),
		zap.Int("contacts", len(contacts)),
		zap.Int("sent", len(sentTo)),
		zap.String("status", status))

	respondSuccess(w, http.StatusCreated, envelope{
		"data": envelope{
			"alertId":      alert.ID,
			"message":      fullMessage,
			"sentTo":       sentTo,
			"results":      results,
			"contactCount": len(contacts),
			"successCount": len(sentTo),
			"failCount":    len(contacts) - len(sentTo),
			"timestamp":    alert.CreatedAt,
		},
		"message": fmt.Sprintf("Alert sent to %d of %d contact(s)", len(sentTo), len(contacts)),
	})
}

// AlertHistory lists the caller's alerts, newest first.
func (h *SOSHandler) AlertHistory(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 50 {
			limit = v
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	alerts := []models.SOSAlert{}
	err := h.db.Select(&alerts,
		`SELECT id, user_id, latitude, longitude, message, sent_to, status, created_at
		 FROM sos_alerts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		h.logger.Error("alert history failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch alert history")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": alerts, "count": len(alerts)})
}
