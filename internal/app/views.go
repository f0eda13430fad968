package app

import (
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
)

// View helpers shape store rows into the JSON payloads the API returns.

func userView(u store.User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"avatarColor": u.AvatarColor,
		"isAdmin":     u.IsAdmin,
		"createdAt":   u.CreatedAt,
	}
}

func userViews(users []store.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u))
	}
	return out
}

func preferencesView(p store.NotificationPreferences) map[string]any {
	return map[string]any{
		"taskAssigned":  p.TaskAssigned,
		"taskComment":   p.TaskComment,
		"taskStatus":    p.TaskStatus,
		"directMessage": p.DirectMessage,
		"groupMessage":  p.GroupMessage,
		"stockAlert":    p.StockAlert,
	}
}

func taskView(t store.Task) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"dueDate":     t.DueDate,
		"workflowId":  t.WorkflowID,
		"stageId":     t.StageID,
		"createdBy":   t.CreatedBy,
		"createdAt":   t.CreatedAt,
		"updatedAt":   t.UpdatedAt,
	}
}

func taskViews(tasks []store.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView(t))
	}
	return out
}

func taskDetailView(d TaskDetail) map[string]any {
	view := taskView(d.Task)
	view["participants"] = userViews(d.Participants)
	view["subtasks"] = subtaskViews(d.Subtasks)
	view["steps"] = stepViews(d.Steps)
	view["comments"] = commentViews(d.Comments)
	return view
}

func subtaskView(s store.Subtask) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"title":     s.Title,
		"completed": s.Completed,
		"createdAt": s.CreatedAt,
	}
}

func subtaskViews(subtasks []store.Subtask) []map[string]any {
	out := make([]map[string]any, 0, len(subtasks))
	for _, s := range subtasks {
		out = append(out, subtaskView(s))
	}
	return out
}

func stepView(s store.Step) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"title":     s.Title,
		"sortOrder": s.SortOrder,
		"completed": s.Completed,
		"createdAt": s.CreatedAt,
	}
}

func stepViews(steps []store.Step) []map[string]any {
	out := make([]map[string]any, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepView(s))
	}
	return out
}

func commentView(c store.Comment) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"authorId":   c.AuthorID,
		"authorName": c.AuthorName,
		"body":       c.Body,
		"createdAt":  c.CreatedAt,
	}
}

func commentViews(comments []store.Comment) []map[string]any {
	out := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c))
	}
	return out
}

func workflowView(wf store.Workflow) map[string]any {
	return map[string]any{
		"id":          wf.ID,
		"name":        wf.Name,
		"description": wf.Description,
		"createdBy":   wf.CreatedBy,
		"createdAt":   wf.CreatedAt,
		"updatedAt":   wf.UpdatedAt,
	}
}

func stageView(st store.Stage) map[string]any {
	return map[string]any{
		"id":          st.ID,
		"workflowId":  st.WorkflowID,
		"name":        st.Name,
		"color":       st.Color,
		"description": st.Description,
		"sortOrder":   st.SortOrder,
	}
}

func stageViews(stages []store.Stage) []map[string]any {
	out := make([]map[string]any, 0, len(stages))
	for _, st := range stages {
		out = append(out, stageView(st))
	}
	return out
}

func directMessageView(m store.DirectMessage) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"senderId":    m.SenderID,
		"recipientId": m.RecipientID,
		"body":        m.Body,
		"readAt":      m.ReadAt,
		"createdAt":   m.CreatedAt,
	}
}

func conversationView(c store.Conversation) map[string]any {
	return map[string]any{
		"partnerId":   c.PartnerID,
		"partnerName": c.PartnerName,
		"lastBody":    c.LastBody,
		"lastAt":      c.LastAt,
		"unread":      c.Unread,
	}
}

func channelView(c store.Channel) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"createdBy":   c.CreatedBy,
		"createdAt":   c.CreatedAt,
	}
}

func channelMemberView(m store.ChannelMember) map[string]any {
	return map[string]any{
		"userId":   m.UserID,
		"username": m.Username,
		"isAdmin":  m.IsAdmin,
		"joinedAt": m.JoinedAt,
	}
}

func groupMessageView(m store.GroupMessage) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"channelId":  m.ChannelID,
		"senderId":   m.SenderID,
		"senderName": m.SenderName,
		"body":       m.Body,
		"createdAt":  m.CreatedAt,
	}
}

func stockItemView(i store.StockItem) map[string]any {
	return map[string]any{
		"id":                   i.ID,
		"name":                 i.Name,
		"description":          i.Description,
		"costCents":            i.CostCents,
		"quantity":             i.Quantity,
		"lowQuantityThreshold": i.LowQuantityThreshold,
		"assignedTo":           i.AssignedTo,
		"createdAt":            i.CreatedAt,
		"updatedAt":            i.UpdatedAt,
	}
}

func stockMovementView(m store.StockMovement) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"itemId":      m.ItemID,
		"delta":       m.Delta,
		"reason":      m.Reason,
		"performedBy": m.PerformedBy,
		"createdAt":   m.CreatedAt,
	}
}

func permissionView(p store.Permission) map[string]any {
	return map[string]any{
		"userId":    p.UserID,
		"feature":   p.Feature,
		"canView":   p.CanView,
		"canManage": p.CanManage,
		"canAdjust": p.CanAdjust,
		"canDelete": p.CanDelete,
	}
}

func clientView(c store.Client) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"address":   c.Address,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}

func clientServiceView(cs store.ClientService) map[string]any {
	return map[string]any{
		"id":               cs.ID,
		"clientId":         cs.ClientID,
		"name":             cs.Name,
		"description":      cs.Description,
		"priceCents":       cs.PriceCents,
		"billingCycle":     cs.BillingCycle,
		"startsOn":         cs.StartsOn,
		"active":           cs.Active,
		"hasContract":      cs.ContractObjectKey != "",
		"contractFileName": cs.ContractFileName,
		"createdAt":        cs.CreatedAt,
		"updatedAt":        cs.UpdatedAt,
	}
}

func proformaView(p store.Proforma) map[string]any {
	items := make([]map[string]any, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, map[string]any{
			"description":    item.Description,
			"quantity":       item.Quantity,
			"unitPriceCents": item.UnitPriceCents,
		})
	}
	return map[string]any{
		"id":         p.ID,
		"number":     p.Number,
		"clientId":   p.ClientID,
		"clientName": p.ClientName,
		"status":     p.Status,
		"notes":      p.Notes,
		"items":      items,
		"totalCents": p.TotalCents,
		"createdBy":  p.CreatedBy,
		"createdAt":  p.CreatedAt,
		"updatedAt":  p.UpdatedAt,
	}
}

func expenseView(e store.Expense) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"description": e.Description,
		"amountCents": e.AmountCents,
		"category":    e.Category,
		"incurredOn":  e.IncurredOn.Format("2006-01-02"),
		"recordedBy":  e.RecordedBy,
		"createdAt":   e.CreatedAt,
	}
}

func notificationView(n store.EmailNotification) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"kind":      n.Kind,
		"subject":   n.Subject,
		"status":    n.Status,
		"read":      n.Read,
		"createdAt": n.CreatedAt,
		"sentAt":    n.SentAt,
	}
}

func monthStart(value string) (time.Time, bool) {
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
