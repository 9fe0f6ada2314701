/*
Package main contains a command-line example for gxrpc.

The example shows how to:
  - load serial and protocol settings from a TOML configuration file
  - open a gxserial media and run the RPC protocol over it
  - subscribe a topic handler that echoes received payloads
  - publish a message with and without an acknowledgement request
  - service incoming frames with Loop
*/
package main
