package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

// Invite notifies the user registered under inviteeEmail. It does not grant
// membership; the invitee joins through AddMember.
func (s *Service) Invite(ctx context.Context, actorID, groupID, inviteeEmail string) (n *domain.Notification, err error) {
	defer func() { observe("invite", err) }()

	inviteeEmail = strings.ToLower(strings.TrimSpace(inviteeEmail))
	if inviteeEmail == "" {
		return nil, domain.ErrValidation("userEmail", "is required")
	}

	g, err := s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Status == domain.GroupDisbanded {
		return nil, errDisbanded(g.ID)
	}
	if !g.IsManager(actorID) && !g.IsMember(actorID) {
		return nil, domain.ErrAccessDenied("only members of group order %s can invite", g.ID)
	}
	sender, err := s.Store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	invitee, err := s.Store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		return nil, err
	}

	n, err = s.Notifier.Notify(ctx, invitee.ID, s.inviteMessage(sender.Name, g))
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventMemberInvited, g, models.LifecyclePayload{ActorID: actorID, SubjectID: invitee.ID})
	return n, nil
}

func (s *Service) inviteMessage(senderName string, g *domain.GroupOrder) string {
	link := strings.TrimRight(s.BaseURL, "/") + "/admin/groupOrder/" + g.ID
	return fmt.Sprintf("%s invited you to join the group: %s\n%s", senderName, g.Name, link)
}

// AddMember lets userID join an Open group. Joining twice is a no-op.
func (s *Service) AddMember(ctx context.Context, userID, groupID string) (g *domain.GroupOrder, err error) {
	defer func() { observe("add_member", err) }()

	g, err = s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	switch {
	case g.Status == domain.GroupDisbanded:
		return nil, errDisbanded(g.ID)
	case g.IsManager(userID):
		return nil, domain.ErrConflict("the manager cannot join their own group order %s", g.ID)
	case g.IsMember(userID):
		return g, nil
	case g.Status != domain.GroupOpen:
		return nil, domain.ErrConflict("group order %s is %s and no longer accepts members", g.ID, g.Status)
	}
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	g, err = s.Store.AddMember(ctx, g.ID, userID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventMemberJoined, g, models.LifecyclePayload{
		ActorID:    userID,
		SubjectID:  userID,
		Recipients: []string{g.ManagerID},
	})
	return g, nil
}

// RemoveMember drops memberID from the group. Orders the member already
// submitted stay attached to the group.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, memberID string) (g *domain.GroupOrder, err error) {
	defer func() { observe("remove_member", err) }()

	g, err = s.managedGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(memberID) {
		return nil, domain.ErrNotFound("user %s is not a member of group order %s", memberID, g.ID)
	}
	g, err = s.Store.RemoveMember(ctx, g.ID, memberID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventMemberRemoved, g, models.LifecyclePayload{
		ActorID:    actorID,
		SubjectID:  memberID,
		Recipients: []string{memberID},
	})
	return g, nil
}

func (s *Service) Notifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.Store.ListNotifications(ctx, userID)
}
