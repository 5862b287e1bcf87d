// Package execution provides execution contexts: composable objects that
// start an external command and return a handle to its output and exit
// status.
//
// Every context implements Context. Wrapping contexts rewrite part of the
// Call and forward it to the context they were built on, exactly once:
//
//	Local            starts a real OS process
//	WithEnvironment  forces preset environment variables
//	WithXEnvironment detects the running X display and forces DISPLAY
//	InDirectory      forces a working directory
//	SSH              runs the command on another host through the ssh client
//	SimpleLogging    logs each call without changing it
//	Recorder         stores every result in a zip archive
//	Player           answers calls from such an archive, without any process
//
// A typical chain for recording xrandr calls on a remote machine:
//
//	rec, err := execution.NewRecorder("session.zip", true,
//		execution.NewWithXEnvironment(
//			execution.NewSSH("workstation", execution.Local{})))
//	if err != nil {
//		return err
//	}
//	defer rec.Close()
//
//	out, err := execution.Execute(rec, execution.Command("xrandr", "-q")).Read()
//
// Replaying the same calls in the same order against NewPlayer("session.zip")
// returns the same results without touching a display server.
//
// Contexts are not safe for overlapping calls; a chain serves one caller
// issuing one command at a time.
package execution
