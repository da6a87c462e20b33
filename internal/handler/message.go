package handler

import (
	"net/http"
	"strconv"

	"github.com/schoolink-dev/schoolink/internal/api"
	"github.com/schoolink-dev/schoolink/internal/domain"
	"github.com/schoolink-dev/schoolink/internal/utils"
)

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}

	var body api.CreateMessageRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	msg, err := h.message.Create(r.Context(), req, domain.MessageCreationData{
		Type:          domain.MessageType(body.Type),
		Subject:       body.Subject,
		Body:          body.Body,
		ClassId:       body.ClassId,
		StudentId:     body.StudentId,
		AttachmentIds: body.AttachmentIds,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.MessageResponse{Message: *msg})
}

func (h *Handler) ReplyMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	parentId, err := messageIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	msg, err := h.message.Reply(r.Context(), req, parentId, domain.ReplyData{
		Body:          body.Body,
		AttachmentIds: body.AttachmentIds,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.MessageResponse{Message: *msg})
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, err := messageIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.message.Get(r.Context(), req, id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MessageResponse{Message: *msg})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, err := messageIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.message.GetThread(r.Context(), req, id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.ThreadResponse{Thread: *thread})
}

func (h *Handler) GetInbox(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	page, pageSize, err := h.pagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var filter domain.InboxFilter
	if typeQuery := r.URL.Query().Get("type"); typeQuery != "" {
		msgType := domain.MessageType(typeQuery)
		filter.Type = &msgType
	}
	if readQuery := r.URL.Query().Get("is_read"); readQuery != "" {
		isRead, err := strconv.ParseBool(readQuery)
		if err != nil {
			http.Error(w, "invalid is_read parameter", http.StatusBadRequest)
			return
		}
		filter.IsRead = &isRead
	}

	messages, total, err := h.message.Inbox(r.Context(), req, filter, page, pageSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, listResponse(messages, total, page, pageSize))
}

func (h *Handler) GetSent(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	page, pageSize, err := h.pagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	messages, total, err := h.message.Sent(r.Context(), req, page, pageSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, listResponse(messages, total, page, pageSize))
}

func (h *Handler) GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	page, pageSize, err := h.pagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	messages, total, err := h.message.Announcements(r.Context(), req, page, pageSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, listResponse(messages, total, page, pageSize))
}

func (h *Handler) GetUnreadCounts(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}

	counts, err := h.message.UnreadCounts(r.Context(), req)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.UnreadCountsResponse{UnreadCounts: counts})
}

func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, err := messageIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	transitioned, err := h.message.MarkRead(r.Context(), req, id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MarkReadResponse{Transitioned: transitioned})
}

func (h *Handler) MarkManyRead(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}

	var body api.MarkManyReadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	marked, err := h.message.MarkManyRead(r.Context(), req, body.MessageIds)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.MarkManyReadResponse{MarkedRead: marked})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, err := messageIdParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.message.Delete(r.Context(), req, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func listResponse(messages []*domain.Message, total, page, pageSize int) api.MessageListResponse {
	items := make([]api.MessageResponse, len(messages))
	for i, msg := range messages {
		items[i] = api.MessageResponse{Message: *msg}
	}
	return api.MessageListResponse{Messages: items, Total: total, Page: page, PageSize: pageSize}
}
