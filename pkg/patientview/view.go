package patientview

// View names a frontend page.
type View int

const (
	ViewDashboard View = iota
	ViewPatientsList
	ViewPatientDetails
	ViewAddPatient
	ViewEditPatient
)

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewPatientsList:
		return "patients"
	case ViewPatientDetails:
		return "patient-details"
	case ViewAddPatient:
		return "add-patient"
	case ViewEditPatient:
		return "edit-patient"
	default:
		return "dashboard"
	}
}

// Navigator tracks the current view and, for detail and edit views, the
// selected patient. Unknown states resolve to the dashboard.
type Navigator struct {
	current  View
	selected string
}

func NewNavigator() *Navigator {
	return &Navigator{current: ViewDashboard}
}

// Current returns the active view and the selected patient id, which is
// empty outside the detail and edit views.
func (n *Navigator) Current() (View, string) {
	switch n.current {
	case ViewDashboard, ViewPatientsList, ViewAddPatient:
		return n.current, ""
	case ViewPatientDetails, ViewEditPatient:
		return n.current, n.selected
	default:
		return ViewDashboard, ""
	}
}

// Go switches to a view that needs no selected patient. Selecting a detail
// or edit view without a patient resolves to the dashboard.
func (n *Navigator) Go(v View) {
	switch v {
	case ViewDashboard, ViewPatientsList, ViewAddPatient:
		n.current = v
		n.selected = ""
	default:
		n.current = ViewDashboard
		n.selected = ""
	}
}

// Show opens the detail view for a patient.
func (n *Navigator) Show(id string) {
	n.current = ViewPatientDetails
	n.selected = id
}

// Edit opens the edit view for a patient.
func (n *Navigator) Edit(id string) {
	n.current = ViewEditPatient
	n.selected = id
}
