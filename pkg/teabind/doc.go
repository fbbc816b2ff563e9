// Package teabind connects stores to Bubble Tea programs.
//
// A Binding subscribes to a store and turns notifications into tea.Msg
// values. Return Wait from Init, and again from Update each time the
// binding's message arrives:
//
//	func (m model) Init() tea.Cmd { return m.cart.Wait() }
//
//	func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
//	    switch msg := msg.(type) {
//	    case teabind.ChangedMsg[Cart]:
//	        m.state = msg.State
//	        return m, m.cart.Wait()
//	    }
//	    return m, nil
//	}
//
// Notifications that arrive while the program is busy are coalesced: Wait
// always reports the latest state, never a backlog.
package teabind
