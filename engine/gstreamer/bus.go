package gstreamer

import (
	"sync"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/logger"
)

func (e *Engine) watchBus() {
	defer e.wg.Done()
	bus := e.pipeline.GetPipelineBus()
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		msg := bus.TimedPop(e.poll)
		if msg == nil {
			continue
		}
		if !e.deliver(fromMessage(msg)) {
			return
		}
	}
}

// deliver queues ev for Next. It reports false once the engine is closed.
func (e *Engine) deliver(ev engine.Event) bool {
	select {
	case e.events <- ev:
		return true
	case <-e.stop:
		return false
	}
}

func fromMessage(msg *gst.Message) engine.Event {
	ev := engine.Event{Kind: engine.EventOther, Source: msg.Source()}
	switch msg.Type() {
	case gst.MessageStreamStart:
		ev.Kind = engine.EventStreamStart
	case gst.MessageEOS:
		ev.Kind = engine.EventEOS
	case gst.MessageError:
		gerr := msg.ParseError()
		ev.Kind = engine.EventError
		ev.Err = gerr
		ev.Debug = gerr.DebugString()
	case gst.MessageStateChanged:
		old, cur := msg.ParseStateChanged()
		ev.Kind = engine.EventStateChanged
		ev.Old = fromGst(old)
		ev.New = fromGst(cur)
	}
	return ev
}

// watchPads reports every pad el adds at runtime and blocks the streaming
// thread until the event is acknowledged or the engine closes.
func (e *Engine) watchPads(el *gst.Element) error {
	_, err := el.Connect("pad-added", func(self *gst.Element, pad *gst.Pad) {
		released := make(chan struct{})
		var once sync.Once
		ev := engine.Event{
			Kind:   engine.EventStreamDiscovered,
			Source: self.GetName(),
			Pad:    pad.GetName(),
			Caps:   padCaps(pad),
		}.WithAck(func() { once.Do(func() { close(released) }) })

		e.log.Debug("pad added", ev.Fields())
		if !e.deliver(ev) {
			return
		}
		select {
		case <-released:
		case <-e.stop:
			e.log.Warn("engine closed before pad was handled", logger.Fields(logger.FieldPad, ev.Pad))
		}
	})
	return err
}

func padCaps(pad *gst.Pad) string {
	caps := pad.GetCurrentCaps()
	if caps == nil {
		caps = pad.QueryCaps(nil)
	}
	if caps == nil {
		return ""
	}
	return caps.String()
}

func toGst(s engine.State) gst.State {
	switch s {
	case engine.StateReady:
		return gst.StateReady
	case engine.StatePaused:
		return gst.StatePaused
	case engine.StatePlaying:
		return gst.StatePlaying
	}
	return gst.StateNull
}

func fromGst(s gst.State) engine.State {
	switch s {
	case gst.StateReady:
		return engine.StateReady
	case gst.StatePaused:
		return engine.StatePaused
	case gst.StatePlaying:
		return engine.StatePlaying
	}
	return engine.StateNull
}
