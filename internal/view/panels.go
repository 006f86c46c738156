package view

// Panel names one of the view's toggleable forms.
type Panel string

const (
	PanelAddTotalValue Panel = "add-total-value"
	PanelAddBroker     Panel = "add-broker"
	PanelSearch        Panel = "search"
)

// Panels holds the three independent toggles. All start closed.
type Panels struct {
	AddingTotalValue bool `json:"addingTotalValue"`
	AddingBroker     bool `json:"addingBroker"`
	Searching        bool `json:"searching"`
}

func (p *Panels) Open(panel Panel) {
	p.set(panel, true)
}

// Close closes panel. Closing the add-total-value form also closes the
// add-broker form nested in it.
func (p *Panels) Close(panel Panel) {
	p.set(panel, false)
	if panel == PanelAddTotalValue {
		p.AddingBroker = false
	}
}

func (p Panels) IsOpen(panel Panel) bool {
	switch panel {
	case PanelAddTotalValue:
		return p.AddingTotalValue
	case PanelAddBroker:
		return p.AddingBroker
	case PanelSearch:
		return p.Searching
	}
	return false
}

func (p *Panels) set(panel Panel, open bool) {
	switch panel {
	case PanelAddTotalValue:
		p.AddingTotalValue = open
	case PanelAddBroker:
		p.AddingBroker = open
	case PanelSearch:
		p.Searching = open
	}
}
