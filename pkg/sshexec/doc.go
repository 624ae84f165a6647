/*
Package sshexec runs commands on emulated containers over SSH.

Each command runs in its own SSH session with a deadline; a command that exits
non-zero returns *CommandError and a command that outlives its deadline returns
ErrTimeout, so callers can tell "the node refused" apart from "not applicable".
Files are written over SFTP.

Recorder implements the same Dialer interface in memory and records every
command per host, which lets controllers be tested without a network.
LocalDialer runs the same sessions on this physical host through /bin/sh.
*/
package sshexec
