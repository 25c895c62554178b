/*
Package wireup compiles graphs of signal processing blocks into real-time
audio processors.

Concept

A graph consists of blocks connected with wires. Every block is an
instance of a kind: a declaration of input, output and memory pins plus a
transfer function which is called once per tick:

    func(dt float64, in, out, mem Pins)

Transfer functions only write their out and mem pins, run in constant
time and never allocate. Kinds are registered in a Registry and
instantiated by name:

    g := wireup.New(
        wireup.WithRegistry(blocks.Registry()),
        wireup.WithSampleRate(44100),
    )
    g.AddBlock("osc", "phasor", wireup.Args{"frequency": 440})
    g.AddBlock("sin", "sinosc", nil)
    g.AddWire("osc.phase", "sin.phase")
    g.AddWire("sin.value", "aout")

Wires connect an output pin or an input terminal (ain, ainL, ainR) to an
input pin or an output terminal (aout, aoutL, aoutR). Several wires into
the same input are summed.

Slots

Every pin gets a slot with process-wide unique id when block is created.
Slot is addressable by raw name "<category>_<pin>_<id>" and by qualified
name "<block>.<category>.<pin>", where category is one of ain, aout or mem.
Signals are user names bound to terminals or slots:

    g.DefineSignal("pitch", "osc.mem.frequency")

Compilation

Graph compiles lazily. Any edit drops compiled processor and next call of
Processor builds a new one. Producing blocks, the ones with outputs, are
ticked K times per sample, where K is the oversample factor. Each sub-step
ticks all producing blocks in registration order and then transmits wires
in registration order. Blocks observe values transmitted by the previous
sub-step, so feedback loops need no special handling. Blocks without
outputs are ticked once per sample after the sub-steps. Each frame of
output is:

    outL = aoutL + aout
    outR = aoutR + aout

Hot swap

Engine owns the active processor. Sync compiles the graph if needed,
copies state of every slot the old and new processor share and swaps them
atomically:

    e := wireup.NewEngine(g)
    if _, err := e.Sync(); err != nil {
        // old processor keeps running
    }
    e.Process(in, outL, outR)

Notifications

Graph emits dirty, ready, connected, disconnected and die events
synchronously. Processor posts audioprocess events without blocking into
a bounded queue, which is delivered by Emitter.Run or Emitter.Drain on a
control goroutine. Block monitor hooks are executed there.
*/
package wireup
