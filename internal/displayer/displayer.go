package displayer

import (
	"fmt"
	"sync"
	"time"

	"gobd/internal/models"
	"gobd/internal/obd"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Displayer renders the live dashboard and DTC pages. It owns a Poller while
// the dashboard page is visible; the DTC page stops polling first because
// the adapter cannot serve two readers at once.
type Displayer struct {
	app      *tview.Application
	tabs     *tview.Pages
	reader   *obd.Reader
	poller   *obd.Poller
	interval time.Duration

	// sink receives every snapshot in addition to the UI (CSV/session
	// recording). May be nil.
	sink obd.SnapshotFunc

	mu     sync.Mutex
	latest models.Snapshot
	trip   tripState

	sensorTable *tview.Table
	dtcTable    *tview.Table
	statusText  *tview.TextView
}

type tripState struct {
	start      time.Time
	prevSpeed  float64
	prevSample time.Time
	distanceKm float64
	maxSpeed   float64
	samples    int
	speedSum   float64
}

func New(reader *obd.Reader, interval time.Duration) *Displayer {
	return &Displayer{
		app:      tview.NewApplication(),
		tabs:     tview.NewPages(),
		reader:   reader,
		poller:   obd.NewPoller(reader),
		interval: interval,
	}
}

// SetSnapshotSink registers an extra consumer for every snapshot. Must be
// called before Run.
func (d *Displayer) SetSnapshotSink(fn obd.SnapshotFunc) {
	d.sink = fn
}

func (d *Displayer) Run() error {
	d.sensorTable = d.buildSensorTable()
	d.dtcTable = tview.NewTable().SetBorders(false)

	title := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetText("gobd - OBD-II diagnostic dashboard")
	d.statusText = tview.NewTextView().SetTextAlign(tview.AlignCenter).SetDynamicColors(true)
	help := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetText("Keys: 1 Dashboard  2 DTC  q Quit")

	headerFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	headerFlex.AddItem(title, 1, 0, false)
	headerFlex.AddItem(d.statusText, 1, 0, false)
	headerFlex.AddItem(help, 1, 0, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(headerFlex, 3, 0, false)

	d.tabs.AddPage("dashboard", d.sensorTable, true, true)
	d.tabs.AddPage("dtc", d.dtcTable, true, false)
	mainFlex.AddItem(d.tabs, 0, 1, true)

	d.app.SetRoot(mainFlex, true)
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			d.Shutdown()
			return nil
		case '1':
			d.showDashboard()
			return nil
		case '2':
			d.showDTCs()
			return nil
		}
		return event
	})

	d.trip = tripState{start: time.Now()}
	if err := d.startPolling(); err != nil {
		return err
	}

	if err := d.app.Run(); err != nil {
		return err
	}
	return nil
}

func (d *Displayer) Shutdown() {
	d.poller.Stop()
	d.app.Stop()
}

func (d *Displayer) startPolling() error {
	return d.poller.Start(func(snap models.Snapshot) {
		d.mu.Lock()
		d.latest = snap
		d.updateTrip(snap)
		d.mu.Unlock()
		if d.sink != nil {
			d.sink(snap)
		}
		d.app.QueueUpdateDraw(d.renderSensors)
	}, d.interval)
}

func (d *Displayer) showDashboard() {
	d.tabs.SwitchToPage("dashboard")
	d.startPolling()
}

// showDTCs pauses polling (the poller owns the connector) and reads stored
// plus pending codes once.
func (d *Displayer) showDTCs() {
	d.poller.Stop()

	stored := d.reader.ReadDTCs()
	pending := d.reader.ReadPendingDTCs()

	d.dtcTable.Clear()
	d.dtcTable.SetCell(0, 0, tview.NewTableCell("Code").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	d.dtcTable.SetCell(0, 1, tview.NewTableCell("Kind").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	d.dtcTable.SetCell(0, 2, tview.NewTableCell("Description").SetTextColor(tcell.ColorYellow).SetSelectable(false))

	row := 1
	add := func(entries []models.DTCEntry, kind string) {
		for _, e := range entries {
			d.dtcTable.SetCell(row, 0, tview.NewTableCell(e.Code).SetTextColor(tcell.ColorRed))
			d.dtcTable.SetCell(row, 1, tview.NewTableCell(kind))
			d.dtcTable.SetCell(row, 2, tview.NewTableCell(e.Description))
			row++
		}
	}
	add(stored, "stored")
	add(pending, "pending")
	if row == 1 {
		d.dtcTable.SetCell(1, 0, tview.NewTableCell("No trouble codes").SetTextColor(tcell.ColorGreen))
	}

	d.tabs.SwitchToPage("dtc")
}

func (d *Displayer) buildSensorTable() *tview.Table {
	t := tview.NewTable().SetBorders(false)
	t.SetCell(0, 0, tview.NewTableCell("Sensor").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	t.SetCell(0, 1, tview.NewTableCell("Value").SetTextColor(tcell.ColorYellow).SetAlign(tview.AlignRight).SetSelectable(false))
	t.SetCell(0, 2, tview.NewTableCell("Unit").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	t.SetCell(0, 3, tview.NewTableCell("Status").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	return t
}

func (d *Displayer) renderSensors() {
	d.mu.Lock()
	snap := d.latest
	trip := d.tripSummary()
	d.mu.Unlock()

	if snap.Readings == nil {
		return
	}

	ts := snap.Timestamp.Format("15:04:05")
	d.statusText.SetText(fmt.Sprintf("[green]last update %s[-]   %s", ts, trip))

	for i, key := range snap.Keys {
		desc, err := obd.Lookup(key)
		if err != nil {
			continue
		}
		r := snap.Readings[key]

		valueStr := "–"
		status := "N/A"
		color := tcell.ColorGray
		if r.OK {
			valueStr = fmt.Sprintf("%g", r.Value)
			status = "✓"
			color = tcell.ColorGreen
			if desc.HasHigh && r.Value >= desc.AlertHigh {
				status = "⚠ HIGH"
				color = tcell.ColorRed
			} else if desc.HasLow && r.Value <= desc.AlertLow {
				status = "⚠ LOW"
				color = tcell.ColorYellow
			}
		}

		row := i + 1
		d.sensorTable.SetCell(row, 0, tview.NewTableCell(desc.Desc))
		d.sensorTable.SetCell(row, 1, tview.NewTableCell(valueStr).SetAlign(tview.AlignRight).SetTextColor(color))
		d.sensorTable.SetCell(row, 2, tview.NewTableCell(desc.Unit))
		d.sensorTable.SetCell(row, 3, tview.NewTableCell(status).SetTextColor(color))
	}
}

func (d *Displayer) updateTrip(snap models.Snapshot) {
	r := snap.Get("SPEED")
	if !r.OK {
		d.trip.prevSample = snap.Timestamp
		return
	}
	if !d.trip.prevSample.IsZero() {
		dt := snap.Timestamp.Sub(d.trip.prevSample).Seconds()
		avg := (d.trip.prevSpeed + r.Value) / 2
		d.trip.distanceKm += avg / 3600 * dt
	}
	d.trip.prevSpeed = r.Value
	d.trip.prevSample = snap.Timestamp
	d.trip.samples++
	d.trip.speedSum += r.Value
	if r.Value > d.trip.maxSpeed {
		d.trip.maxSpeed = r.Value
	}
}

func (d *Displayer) tripSummary() string {
	elapsed := time.Since(d.trip.start).Round(time.Second)
	avg := 0.0
	if d.trip.samples > 0 {
		avg = d.trip.speedSum / float64(d.trip.samples)
	}
	return fmt.Sprintf("trip %s  %.2f km  avg %.1f km/h  max %.0f km/h",
		elapsed, d.trip.distanceKm, avg, d.trip.maxSpeed)
}
