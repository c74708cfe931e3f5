// Package access decides which pages and actions a principal may reach.
package access

import (
	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role of the caller. Anonymous is never stored; it is the absence of a session.
type Role string

const (
	Anonymous Role = "anonymous"
	Citizen   Role = "citizen"
	Admin     Role = "admin"
)

// RoleOf maps a stored account role.
func RoleOf(r models.Role) Role {
	if r == models.RoleAdmin {
		return Admin
	}
	return Citizen
}

// Principal is the identity attached to a request.
type Principal struct {
	UserID    primitive.ObjectID
	Role      Role
	SessionID string
}

// AnonymousPrincipal is the principal of a request without a live session.
var AnonymousPrincipal = Principal{Role: Anonymous}

func (p Principal) Authenticated() bool {
	return p.Role != Anonymous && !p.UserID.IsZero()
}

// Page is a view or action gated by role.
type Page string

const (
	PublicDashboard  Page = "public_dashboard"
	IssueMap         Page = "issue_map"
	IssueDetail      Page = "issue_detail"
	Login            Page = "login"
	ReportIssue      Page = "report_issue"
	MyComplaints     Page = "my_complaints"
	Profile          Page = "profile"
	AdminDashboard   Page = "admin_dashboard"
	AdminIssueDetail Page = "admin_issue_detail"
	AdminActionPanel Page = "admin_action_panel"
	Analytics        Page = "analytics"
	Export           Page = "export"
)

var permissions = map[Page][]Role{
	PublicDashboard:  {Anonymous, Citizen, Admin},
	IssueMap:         {Anonymous, Citizen, Admin},
	IssueDetail:      {Anonymous, Citizen, Admin},
	Login:            {Anonymous, Citizen, Admin},
	ReportIssue:      {Citizen, Admin},
	MyComplaints:     {Citizen, Admin},
	Profile:          {Citizen, Admin},
	AdminDashboard:   {Admin},
	AdminIssueDetail: {Admin},
	AdminActionPanel: {Admin},
	Analytics:        {Admin},
	Export:           {Admin},
}

// Allowed reports whether role may open page. Unknown pages are denied.
func Allowed(role Role, page Page) bool {
	for _, r := range permissions[page] {
		if r == role {
			return true
		}
	}
	return false
}

// Pages lists the pages role may open, in declaration order.
func Pages(role Role) []Page {
	order := []Page{
		PublicDashboard, IssueMap, IssueDetail, Login, ReportIssue, MyComplaints,
		Profile, AdminDashboard, AdminIssueDetail, AdminActionPanel, Analytics, Export,
	}
	out := make([]Page, 0, len(order))
	for _, page := range order {
		if Allowed(role, page) {
			out = append(out, page)
		}
	}
	return out
}

// Decision is the outcome of an access check.
type Decision int

const (
	Allow Decision = iota
	// DenyUnauthenticated means the page needs a signed-in user.
	DenyUnauthenticated
	// DenyForbidden means the signed-in user's role is not enough.
	DenyForbidden
)

// Decide checks page for p.
func Decide(p Principal, page Page) Decision {
	role := p.Role
	if !p.Authenticated() {
		role = Anonymous
	}
	if Allowed(role, page) {
		return Allow
	}
	if role == Anonymous {
		return DenyUnauthenticated
	}
	return DenyForbidden
}
