// File: internal/handlers/admin_handler.go
package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dukasmart/livechat/internal/dtos"
	"github.com/dukasmart/livechat/internal/services/admin_services"
	"github.com/dukasmart/livechat/internal/services/presence"
)

// AdminHandler serves agent moderation and reporting.
type AdminHandler struct {
	adminService *admin_services.AdminService
	presence     *presence.Tracker
}

func NewAdminHandler(adminService *admin_services.AdminService, tracker *presence.Tracker) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		presence:     tracker,
	}
}

// GetAllAgentsHandler handles the API request to fetch all agents, newest
// first, with optional substring search on name/email.
func (h *AdminHandler) GetAllAgentsHandler(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	agents, err := h.adminService.GetAllAgents(r.Context(), search)
	if err != nil {
		log.Printf("[AdminHandler] Error getting all agents: %v", err)
		http.Error(w, "Failed to retrieve agents", http.StatusInternalServerError)
		return
	}

	out := make([]dtos.AgentResponse, len(agents))
	for i, a := range agents {
		out[i] = dtos.FromAgent(a, string(h.presence.StatusOf(a.ID)))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"agents": out,
		"total":  len(out),
	})
}

type toggleAgentRequest struct {
	AgentID  uint `json:"agentID"`
	IsActive bool `json:"isActive"`
}

// ToggleAgentHandler approves or disables a single agent account. A
// duplicate submit (the flag already holds the requested value) comes back
// as 409 so the dashboard re-fetches instead of flipping blind.
func (h *AdminHandler) ToggleAgentHandler(w http.ResponseWriter, r *http.Request) {
	var req toggleAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.adminService.SetAgentActive(r.Context(), req.AgentID, req.IsActive); err != nil {
		if errors.Is(err, admin_services.ErrToggleInFlight) {
			http.Error(w, "Agent already in requested state", http.StatusConflict)
			return
		}
		log.Printf("[AdminHandler] Error toggling agent %d: %v", req.AgentID, err)
		http.Error(w, "Failed to update agent", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Agent updated successfully"})
}

// GetStatsHandler returns the admin dashboard's headline numbers.
func (h *AdminHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error building stats: %v", err)
		http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ExportAgentsCSVHandler streams the agent roster as CSV.
func (h *AdminHandler) ExportAgentsCSVHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := h.adminService.GetAllAgents(r.Context(), "")
	if err != nil {
		log.Printf("[AdminHandler] Error exporting agents: %v", err)
		http.Error(w, "Failed to export agents", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("agents_export_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	header := []string{"ID", "DisplayName", "Email", "Status", "IsAdmin", "CreatedAt"}
	if err := csvWriter.Write(header); err != nil {
		log.Printf("[AdminHandler] Error writing CSV header: %v", err)
		return
	}

	for _, a := range agents {
		status := "Pending"
		if a.IsActive {
			status = "Active"
		}
		record := []string{
			strconv.FormatUint(uint64(a.ID), 10),
			a.DisplayName,
			a.Email,
			status,
			strconv.FormatBool(a.IsAdmin),
			a.CreatedAt.Format(time.RFC3339),
		}
		if err := csvWriter.Write(record); err != nil {
			log.Printf("[AdminHandler] Error writing CSV record for agent %d: %v", a.ID, err)
			return
		}
	}
	log.Printf("[AdminHandler] Successfully exported %d agents to CSV.", len(agents))
}

// ExportConversationsXLSXHandler builds the conversations workbook: one row
// per conversation with its assigned agent and message volume.
func (h *AdminHandler) ExportConversationsXLSXHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.ConversationsReport(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error building conversations report: %v", err)
		http.Error(w, "Failed to export conversations", http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[AdminHandler] Error closing workbook: %v", err)
		}
	}()

	const sheet = "Conversations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		log.Printf("[AdminHandler] Error creating sheet: %v", err)
		http.Error(w, "Failed to export conversations", http.StatusInternalServerError)
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Customer", "Status", "Agent", "Messages", "Started"}
	for i, hName := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, hName)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ConversationID,
			row.Customer,
			row.Status,
			row.AgentName,
			row.MessageCount,
			row.CreatedAt,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("conversations_export_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")

	if err := f.Write(w); err != nil {
		log.Printf("[AdminHandler] Error writing workbook: %v", err)
		return
	}
	log.Printf("[AdminHandler] Successfully exported %d conversations to XLSX.", len(rows))
}
