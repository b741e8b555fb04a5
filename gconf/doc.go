/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration of an extension.

Each extension keeps a single configuration object under the "_c:<pkg>" key.
The configuration is loaded from the "conf" section of the genesis file,
validated and saved once. Extensions read it back when they start.
*/
package gconf
